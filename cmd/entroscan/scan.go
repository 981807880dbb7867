package entroscan

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/varalys/entroscan/internal/audit"
	"github.com/varalys/entroscan/internal/cache"
	"github.com/varalys/entroscan/internal/device"
	"github.com/varalys/entroscan/internal/engine"
	"github.com/varalys/entroscan/internal/report"
	"github.com/varalys/entroscan/internal/types"
)

const defaultBaselineFile = "entroscan.baseline.json"

var (
	flagMinSize       string
	flagStart         string
	flagEnd           string
	flagThreshold     float64
	flagRateLimit     string
	flagJobs          int
	flagSamplingFloor int64
	flagTable         bool
	flagText          bool
	flagOutput        string
	flagBaseline      string
	flagFailOnFound   bool
	flagNoAudit       bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan <device|glob|url>...",
		Short: "Scan devices for high-entropy regions",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScan,
		Example: `
# Encrypted volumes of at least 50 GB on a disk
entroscan scan --min-size 50GB /dev/sdb

# Several images, two at a time, skipping the first GiB
entroscan scan --min-size 1GiB --start 1GiB --jobs 2 'images/*.img'

# An object in S3, throttled to 100 MB/s
entroscan scan --min-size 10GB --rate-limit 100MB s3://forensics/disk.raw`,
	}
	rootCmd.AddCommand(cmd)
	addScanFlags(cmd)
	cmd.Flags().BoolVar(&flagTable, "table", false, "output in table format (default)")
	cmd.Flags().BoolVar(&flagText, "text", false, "output one block per device")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the JSON or SARIF report to a file (.zst and .lz4 are compressed)")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "baseline file of known regions (default "+defaultBaselineFile+")")
	cmd.Flags().BoolVar(&flagFailOnFound, "fail-on-found", false, "exit 1 when regions outside the baseline are found")
	cmd.Flags().BoolVar(&flagNoAudit, "no-audit", false, "do not record the scan in the history")
}

// addScanFlags registers the flags shared by scan and baseline update.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagMinSize, "min-size", "", "smallest region to report, e.g. 50GB (required unless configured)")
	cmd.Flags().StringVar(&flagStart, "start", "", "byte offset to start scanning at, e.g. 1GiB")
	cmd.Flags().StringVar(&flagEnd, "end", "", "byte offset to stop scanning at (default device end)")
	cmd.Flags().Float64Var(&flagThreshold, "threshold", 0, "entropy threshold in [0,1) (default 0.9)")
	cmd.Flags().StringVar(&flagRateLimit, "rate-limit", "", "maximum bytes read per second per device, e.g. 100MB")
	cmd.Flags().IntVar(&flagJobs, "jobs", 0, "devices scanned concurrently (default 1)")
	cmd.Flags().Int64Var(&flagSamplingFloor, "sampling-floor", 0, "stride cap in sectors for the gallop search (default ceil(3GiB/512))")
}

// buildScanConfig resolves flags and config files into an engine config.
func buildScanConfig(c configs, targets []string) (engine.ScanConfig, error) {
	var cfg engine.ScanConfig
	expanded, err := device.Expand(targets)
	if err != nil {
		return cfg, err
	}
	minSize, err := parseSize("min-size", pickString(flagMinSize, c.local.MinSize, c.global.MinSize))
	if err != nil {
		return cfg, err
	}
	if minSize <= 0 {
		return cfg, errors.New("--min-size is required")
	}
	start, err := parseSize("start", pickString(flagStart, c.local.Start, c.global.Start))
	if err != nil {
		return cfg, err
	}
	end, err := parseSize("end", pickString(flagEnd, c.local.End, c.global.End))
	if err != nil {
		return cfg, err
	}
	rate, err := parseSize("rate-limit", pickString(flagRateLimit, c.local.RateLimit, c.global.RateLimit))
	if err != nil {
		return cfg, err
	}
	cfg = engine.ScanConfig{
		Targets:       expanded,
		StartByte:     start,
		EndByte:       end,
		MinSizeBytes:  minSize,
		Threshold:     pickFloat(flagThreshold, c.local.Threshold, c.global.Threshold),
		SamplingFloor: pickInt64(flagSamplingFloor, c.local.SamplingFloor, c.global.SamplingFloor),
		RateLimit:     rate,
		Jobs:          pickInt(flagJobs, c.local.Jobs, c.global.Jobs),
		NoCache:       c.noCache(),
		Device:        c.deviceOptions(),
	}
	if !cfg.NoCache {
		cfg.CacheDir = cacheDir()
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	c := loadConfigs()
	cfg, err := buildScanConfig(c, args)
	if err != nil {
		return err
	}
	log := c.logger()
	cfg.Logger = &log
	noColor := c.noColor()

	var bar *progressPrinter
	if !flagJSON && !flagSARIF && stderrIsTerminal() {
		bar = newProgressPrinter(os.Stderr, noColor)
		cfg.Progress = bar.Update
	}
	res, err := engine.ScanWithStats(cmd.Context(), cfg)
	if bar != nil {
		bar.Done()
	}
	if err != nil {
		return partialReport(cmd.OutOrStdout(), c, &log, res, noColor, err)
	}

	if dir := cacheDir(); dir != "" {
		if err := cache.SaveResults(dir, res.Devices); err != nil {
			log.Warn().Err(err).Msg("saving last scan")
		}
	}

	baselinePath := c.baselinePath()
	base, err := report.LoadBaseline(baselinePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	fresh := report.FilterNew(res.Devices, base)

	if !flagNoAudit {
		if dir := cacheDir(); dir != "" {
			rec := audit.CreateScanRecord(res.Devices, audit.Summaries(fresh), audit.ScanStats{
				Probes:         int64(res.Probes),
				SectorsSampled: int64(res.SectorsSampled),
				BytesRead:      res.BytesRead,
			}, res.Duration, baselinePath)
			if err := audit.NewAuditLog(dir).LogScan(rec); err != nil {
				log.Warn().Err(err).Msg("writing scan history")
			}
		}
	}

	if err := writeReport(cmd.OutOrStdout(), fresh, res, noColor); err != nil {
		return err
	}

	if flagFailOnFound && report.ShouldFail(fresh, 0) {
		os.Exit(1)
	}
	return nil
}

// partialReport prints whatever devices finished before scanErr and then
// returns scanErr, so one unreadable target does not hide the rest.
func partialReport(stdout io.Writer, c configs, log *zerolog.Logger, res engine.ScanResult, noColor bool, scanErr error) error {
	scanErr = fmt.Errorf("scan error: %w", scanErr)
	if len(res.Devices) == 0 {
		return scanErr
	}
	devices := res.Devices
	if base, err := report.LoadBaseline(c.baselinePath()); err == nil {
		devices = report.FilterNew(devices, base)
	}
	if err := writeReport(stdout, devices, res, noColor); err != nil {
		log.Warn().Err(err).Msg("writing partial report")
	}
	return scanErr
}

func writeReport(stdout io.Writer, devices []types.DeviceResult, res engine.ScanResult, noColor bool) error {
	if flagOutput != "" {
		w, err := report.Create(flagOutput)
		if err != nil {
			return err
		}
		if flagSARIF {
			err = report.WriteSARIF(w, devices)
		} else {
			err = report.WriteJSON(w, devices)
		}
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", flagOutput, err)
		}
		if flagJSON || flagSARIF {
			return nil
		}
	}

	opts := report.PrintOptions{
		NoColor:        noColor,
		Duration:       res.Duration,
		Probes:         int64(res.Probes),
		SectorsSampled: int64(res.SectorsSampled),
		BytesRead:      res.BytesRead,
		Undersized:     res.Undersized,
	}
	switch {
	case flagSARIF:
		if err := report.WriteSARIF(stdout, devices); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagJSON:
		return report.WriteJSON(stdout, devices)
	case flagText:
		report.PrintText(stdout, devices, opts)
	default:
		report.PrintTable(stdout, devices, opts)
	}
	if res.CacheHits > 0 && !flagJSON && !flagSARIF {
		_, _ = fmt.Fprintf(os.Stderr, "%d device(s) served from cache; pass --no-cache to rescan\n", res.CacheHits)
	}
	return nil
}
