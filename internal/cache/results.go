package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/varalys/entroscan/internal/types"
)

// ScanResults stores the outcome of the most recent scan.
type ScanResults struct {
	Devices   []types.DeviceResult `json:"devices"`
	Timestamp time.Time            `json:"timestamp"`
	Count     int                  `json:"count"`
}

func resultsPath(dir string) string {
	return filepath.Join(dir, "last_scan.json")
}

// SaveResults stores devices as the last scan.
func SaveResults(dir string, devices []types.DeviceResult) error {
	count := 0
	for _, d := range devices {
		count += len(d.Matches)
	}
	results := ScanResults{
		Devices:   devices,
		Timestamp: time.Now().UTC(),
		Count:     count,
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(resultsPath(dir), b, 0o644)
}

// LoadResults loads the last scan.
func LoadResults(dir string) (ScanResults, error) {
	var results ScanResults
	f, err := os.ReadFile(resultsPath(dir))
	if err != nil {
		return results, err
	}
	if err := json.Unmarshal(f, &results); err != nil {
		return results, err
	}
	return results, nil
}
