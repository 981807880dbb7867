package entroscan

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	flagJSON     bool
	flagSARIF    bool
	flagNoColor  bool
	flagLogLevel string
	flagLogJSON  bool
	flagNoCache  bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the entroscan CLI.
var rootCmd = &cobra.Command{
	Use:           "entroscan",
	Short:         "Find high-entropy regions on block devices",
	Long:          "entroscan locates contiguous regions of random-looking data (encrypted volumes, compressed blobs, wiped space) on disks and images without reading every sector.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the entroscan CLI. It should be called by the main package.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace|debug|info|warn|error|off (default warn)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "write logs as JSON lines")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "ignore and do not update the result cache")
}
