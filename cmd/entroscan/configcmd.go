package entroscan

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/varalys/entroscan/internal/config"
)

func init() {
	var output string
	var force bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .entroscan.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s exists; pass --force to overwrite", output)
			}
			if err := os.WriteFile(output, []byte(config.Template), 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", config.LocalNames[0], "file to write")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(initCmd)
}
