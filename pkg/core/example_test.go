package core_test

import (
	"context"
	"fmt"
	"os"

	"github.com/varalys/entroscan/pkg/core"
)

// ExampleScanWithStats scans an image for regions of at least 1 GiB.
func ExampleScanWithStats() {
	cfg := core.Config{
		Targets:      []string{"disk.img"},
		MinSizeBytes: 1 << 30,
		Jobs:         2,
		NoCache:      true,
	}

	res, err := core.ScanWithStats(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		return
	}
	for _, d := range res.Devices {
		for _, m := range d.Matches {
			fmt.Printf("%s: %d-%d\n", d.Device, m.Region.Start, m.Region.End)
		}
	}
	fmt.Printf("%d probes in %s\n", res.Probes, res.Duration)
}
