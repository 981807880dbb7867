package entroscan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/varalys/entroscan/internal/audit"
)

func init() {
	var limit int
	var del int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := cacheDir()
			if dir == "" {
				return errors.New("no cache directory")
			}
			log := audit.NewAuditLog(dir)
			if cmd.Flags().Changed("delete") {
				if err := log.DeleteRecord(del); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted record %d\n", del)
				return nil
			}

			records, err := log.LoadHistory()
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					records = nil
				} else {
					return err
				}
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			if flagJSON {
				if records == nil {
					records = []audit.ScanRecord{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scans recorded")
				return nil
			}
			for i, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%d  %s  %s  %d device(s)  %d region(s), %d new  %d probes  %s read  %s\n",
					i, r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.ScanID,
					len(r.Devices), r.TotalRegions, r.NewRegions, r.Probes,
					humanize.IBytes(uint64(r.BytesRead)), r.Duration)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most N records (0 = all)")
	cmd.Flags().IntVar(&del, "delete", 0, "delete the record at this index")
	rootCmd.AddCommand(cmd)
}
