package entroscan

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/varalys/entroscan/internal/engine"
	"github.com/varalys/entroscan/internal/report"
)

func init() {
	var count int64
	var threshold float64
	cmd := &cobra.Command{
		Use:   "probe <device> <sector>",
		Short: "Print entropy and leading bytes of sectors",
		Long:  "probe classifies sectors the way scan does and prints each one's entropy, match flag and first 16 bytes in hex. Useful for checking a reported boundary.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			first, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid sector %q: %w", args[1], err)
			}
			c := loadConfigs()
			th := pickFloat(threshold, c.local.Threshold, c.global.Threshold)
			samples, err := engine.Inspect(cmd.Context(), args[0], first, count, th, c.deviceOptions())
			if err != nil {
				return err
			}
			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(samples)
			}
			report.PrintSamples(cmd.OutOrStdout(), samples, c.noColor())
			return nil
		},
	}
	cmd.Flags().Int64VarP(&count, "count", "n", 1, "number of sectors to print")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "entropy threshold in [0,1) (default 0.9)")
	rootCmd.AddCommand(cmd)
}
