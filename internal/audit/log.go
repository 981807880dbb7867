package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/varalys/entroscan/internal/types"
)

// ScanRecord is one line of the scan history.
type ScanRecord struct {
	Timestamp      time.Time       `json:"timestamp"`
	ScanID         string          `json:"scan_id"`
	Devices        []string        `json:"devices"`
	TotalRegions   int             `json:"total_regions"`
	NewRegions     int             `json:"new_regions"`
	BaselinedCount int             `json:"baselined_count"`
	Probes         int64           `json:"probes"`
	SectorsSampled int64           `json:"sectors_sampled"`
	BytesRead      int64           `json:"bytes_read"`
	Duration       string          `json:"duration"`
	BaselineFile   string          `json:"baseline_file,omitempty"`
	TopRegions     []RegionSummary `json:"top_regions,omitempty"`
}

// RegionSummary is a compact region reference stored in the history.
type RegionSummary struct {
	Device string `json:"device"`
	Start  int64  `json:"start"`
	End    int64  `json:"end"`
	Size   int64  `json:"size"`
}

// ScanStats carries the counters recorded with each scan.
type ScanStats struct {
	Probes         int64
	SectorsSampled int64
	BytesRead      int64
}

// maxRecordSize bounds a single history line.
const maxRecordSize = 16 << 20

type AuditLog struct {
	logPath string
}

// NewAuditLog returns a log stored as history.jsonl under dir.
func NewAuditLog(dir string) *AuditLog {
	return &AuditLog{logPath: filepath.Join(dir, "history.jsonl")}
}

// Path returns the log file location.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns all records, newest first. Malformed lines are skipped.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record ScanRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// LogScan appends record, assigning a scan ID when missing.
func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = uuid.NewString()
	}
	if err := os.MkdirAll(filepath.Dir(a.logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create audit dir: %w", err)
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record at index, counted newest first as
// returned by LoadHistory.
func (a *AuditLog) DeleteRecord(index int) error {
	records, err := a.LoadHistory()
	if err != nil {
		return err
	}

	if index < 0 || index >= len(records) {
		return fmt.Errorf("invalid index: %d", index)
	}

	records = append(records[:index], records[index+1:]...)

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	f, err := os.Create(a.logPath)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

// CreateScanRecord summarizes a finished scan. newRegions is the subset of
// all regions not covered by the baseline.
func CreateScanRecord(
	devices []types.DeviceResult,
	newRegions []RegionSummary,
	stats ScanStats,
	duration time.Duration,
	baselineFile string,
) ScanRecord {
	names := make([]string, 0, len(devices))
	total := 0
	for _, d := range devices {
		names = append(names, d.Device)
		total += len(d.Matches)
	}

	top := newRegions
	if len(top) > 10 {
		top = top[:10]
	}

	return ScanRecord{
		Timestamp:      time.Now().UTC(),
		Devices:        names,
		TotalRegions:   total,
		NewRegions:     len(newRegions),
		BaselinedCount: total - len(newRegions),
		Probes:         stats.Probes,
		SectorsSampled: stats.SectorsSampled,
		BytesRead:      stats.BytesRead,
		Duration:       duration.String(),
		BaselineFile:   baselineFile,
		TopRegions:     append([]RegionSummary(nil), top...),
	}
}

// Summaries flattens device results into region summaries.
func Summaries(devices []types.DeviceResult) []RegionSummary {
	var out []RegionSummary
	for _, d := range devices {
		for _, m := range d.Matches {
			out = append(out, RegionSummary{
				Device: d.Device,
				Start:  m.Region.Start,
				End:    m.Region.End,
				Size:   m.Region.Size(),
			})
		}
	}
	return out
}
