package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/varalys/entroscan/internal/types"
)

// PrintOptions controls the human-readable renderers.
type PrintOptions struct {
	NoColor        bool
	Duration       time.Duration
	Probes         int64
	SectorsSampled int64
	BytesRead      int64
	Undersized     int
}

var (
	deviceStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	regionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func paint(s lipgloss.Style, text string, noColor bool) string {
	if noColor {
		return text
	}
	return s.Render(text)
}

func countRegions(devices []types.DeviceResult) int {
	n := 0
	for _, d := range devices {
		n += len(d.Matches)
	}
	return n
}

// PrintText writes one block per device with its regions.
func PrintText(w io.Writer, devices []types.DeviceResult, opts PrintOptions) {
	if countRegions(devices) == 0 {
		fmt.Fprintln(w, "No high-entropy regions found")
	} else {
		for _, d := range devices {
			if len(d.Matches) == 0 {
				continue
			}
			fmt.Fprintf(w, "%s %s\n", paint(deviceStyle, d.Device, opts.NoColor),
				paint(dimStyle, "("+humanize.IBytes(uint64(d.Size))+")", opts.NoColor))
			for _, m := range d.Matches {
				r := m.Region
				line := fmt.Sprintf("  %d-%d  %s", r.Start, r.End, humanize.IBytes(uint64(r.Size())))
				fmt.Fprintln(w, paint(regionStyle, line, opts.NoColor))
			}
		}
	}
	printFooter(w, devices, opts)
}

// PrintTable renders all regions as a single table.
func PrintTable(w io.Writer, devices []types.DeviceResult, opts PrintOptions) {
	if countRegions(devices) == 0 {
		fmt.Fprintln(w, "No high-entropy regions found")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("DEVICE", "START", "END", "SIZE", "START BRACKET", "END BRACKET")
		for _, d := range devices {
			for _, m := range d.Matches {
				r := m.Region
				_ = table.Append([]string{
					d.Device,
					fmt.Sprint(r.Start),
					fmt.Sprint(r.End),
					humanize.IBytes(uint64(r.Size())),
					fmt.Sprintf("%d-%d", m.StartBracket.Low, m.StartBracket.High),
					fmt.Sprintf("%d-%d", m.EndBracket.Low, m.EndBracket.High),
				})
			}
		}
		_ = table.Render()
	}
	printFooter(w, devices, opts)
}

func printFooter(w io.Writer, devices []types.DeviceResult, opts PrintOptions) {
	if opts.Duration <= 0 && opts.Probes <= 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Regions: %d on %d device(s)\n", countRegions(devices), len(devices))
	if opts.Undersized > 0 {
		fmt.Fprintf(w, "Dropped below minimum size: %d\n", opts.Undersized)
	}
	if opts.Probes > 0 {
		fmt.Fprintf(w, "Probes: %d (%d distinct sectors, %s read)\n",
			opts.Probes, opts.SectorsSampled, humanize.IBytes(uint64(opts.BytesRead)))
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
}

// PrintDevices renders the local device listing.
func PrintDevices(w io.Writer, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No block devices found")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("DEVICE", "SIZE", "MOUNTPOINT", "FSTYPE")
	for _, r := range rows {
		_ = table.Append(r)
	}
	_ = table.Render()
}

// PrintSamples renders the output of the probe command.
func PrintSamples(w io.Writer, samples []types.Sample, noColor bool) {
	for _, s := range samples {
		flag := "-"
		if s.Matches {
			flag = paint(regionStyle, "match", noColor)
		}
		fmt.Fprintf(w, "sector %d  offset %d  entropy %.6f  %s  %s\n",
			s.Sector, s.Sector*types.SectorSize, s.Entropy, flag, s.HeadHex())
	}
}
