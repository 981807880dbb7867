package entroscan

import (
	"encoding/json"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/varalys/entroscan/internal/device"
	"github.com/varalys/entroscan/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List local block devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := device.List(cmd.Context())
			if err != nil {
				return err
			}
			if flagJSON {
				if infos == nil {
					infos = []device.Info{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			rows := make([][]string, 0, len(infos))
			for _, in := range infos {
				rows = append(rows, []string{in.Device, humanize.IBytes(uint64(in.Size)), in.Mountpoint, in.Fstype})
			}
			report.PrintDevices(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
