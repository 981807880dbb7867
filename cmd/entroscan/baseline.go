package entroscan

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varalys/entroscan/internal/cache"
	"github.com/varalys/entroscan/internal/engine"
	"github.com/varalys/entroscan/internal/report"
	"github.com/varalys/entroscan/internal/types"
)

func init() {
	var fromLast bool
	var path string

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines of known regions",
	}

	update := &cobra.Command{
		Use:   "update [device|glob|url]...",
		Short: "Record the regions of a scan as known",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := loadConfigs()
			var devices []types.DeviceResult
			switch {
			case fromLast:
				dir := cacheDir()
				if dir == "" {
					return errors.New("no cache directory")
				}
				last, err := cache.LoadResults(dir)
				if err != nil {
					return fmt.Errorf("no previous scan: %w", err)
				}
				devices = last.Devices
			case len(args) == 0:
				return errors.New("give devices to scan or --from-last")
			default:
				cfg, err := buildScanConfig(c, args)
				if err != nil {
					return err
				}
				log := c.logger()
				cfg.Logger = &log
				devices, err = engine.Scan(cmd.Context(), cfg)
				if err != nil {
					return err
				}
			}

			out := pickString(path, c.local.Baseline, c.global.Baseline)
			if out == "" {
				out = defaultBaselineFile
			}
			if err := report.SaveBaseline(out, devices); err != nil {
				return err
			}
			n := 0
			for _, d := range devices {
				n += len(d.Matches)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated: %d region(s) in %s\n", n, out)
			return nil
		},
	}
	addScanFlags(update)
	update.Flags().BoolVar(&fromLast, "from-last", false, "use the results of the last scan instead of scanning")
	update.Flags().StringVar(&path, "file", "", "baseline file (default "+defaultBaselineFile+")")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
