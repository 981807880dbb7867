package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/varalys/entroscan/internal/types"
)

// Baseline records regions already known and accepted.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

// LoadBaseline reads path. A missing file yields an empty baseline and the
// open error.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return Baseline{Items: map[string]bool{}}, fmt.Errorf("baseline %s: %w", path, err)
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

// SaveBaseline writes every region in devices as known.
func SaveBaseline(path string, devices []types.DeviceResult) error {
	b := Baseline{Items: map[string]bool{}}
	for _, d := range devices {
		for _, m := range d.Matches {
			b.Items[key(d.Device, m.Region)] = true
		}
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// FilterNew returns devices with baselined regions removed. Devices stay in
// place even when all their regions are filtered.
func FilterNew(devices []types.DeviceResult, base Baseline) []types.DeviceResult {
	out := make([]types.DeviceResult, 0, len(devices))
	for _, d := range devices {
		nd := d
		nd.Matches = []types.Match{}
		for _, m := range d.Matches {
			if !base.Items[key(d.Device, m.Region)] {
				nd.Matches = append(nd.Matches, m)
			}
		}
		out = append(out, nd)
	}
	return out
}

func key(device string, r types.Region) string {
	return fmt.Sprintf("%s|%d|%d", device, r.Start, r.End)
}

// ShouldFail reports whether any region is at least minBytes long. A zero
// minBytes fails on any region.
func ShouldFail(devices []types.DeviceResult, minBytes int64) bool {
	for _, d := range devices {
		for _, m := range d.Matches {
			if m.Region.Size() >= minBytes {
				return true
			}
		}
	}
	return false
}
