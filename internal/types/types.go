package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SectorSize is the fixed addressable unit of a scanned device, in bytes.
const SectorSize = 512

// HeadLen is how many leading bytes of a sector are kept for diagnostics.
const HeadLen = 16

// Sample is the classification of one sector: its base-256 entropy in [0,1],
// whether it passed the threshold, and its first HeadLen raw bytes.
type Sample struct {
	Sector  int64         `json:"sector"`
	Entropy float64       `json:"entropy"`
	Matches bool          `json:"matches"`
	Head    [HeadLen]byte `json:"-"`
}

// HeadHex returns the sample's leading bytes as lowercase hex.
func (s Sample) HeadHex() string { return hex.EncodeToString(s.Head[:]) }

// MarshalJSON includes the head as hex so reports stay readable.
func (s Sample) MarshalJSON() ([]byte, error) {
	type alias Sample
	return json.Marshal(struct {
		alias
		Head string `json:"head"`
	}{alias(s), s.HeadHex()})
}

// UnmarshalJSON decodes the hex head written by MarshalJSON.
func (s *Sample) UnmarshalJSON(b []byte) error {
	type alias Sample
	aux := struct {
		*alias
		Head string `json:"head"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Head == "" {
		s.Head = [HeadLen]byte{}
		return nil
	}
	raw, err := hex.DecodeString(aux.Head)
	if err != nil {
		return fmt.Errorf("sample head: %w", err)
	}
	if len(raw) != HeadLen {
		return fmt.Errorf("sample head: want %d bytes, got %d", HeadLen, len(raw))
	}
	copy(s.Head[:], raw)
	return nil
}

// Bracket is a coarse sector pair known to straddle a classification
// transition. The zero value means "no bracket".
type Bracket struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

// IsZero reports whether b is the sentinel bracket.
func (b Bracket) IsZero() bool { return b == Bracket{} }

// Bytes returns the bracket as byte offsets.
func (b Bracket) Bytes() (int64, int64) { return b.Low * SectorSize, b.High * SectorSize }

// Region is a half-open byte range [Start, End) of high-entropy data.
type Region struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Size returns End-Start.
func (r Region) Size() int64 { return r.End - r.Start }

// MarshalJSON emits the (start, end, size) triple.
func (r Region) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
		Size  int64 `json:"size"`
	}{r.Start, r.End, r.Size()})
}

// Phase identifies which part of the search produced a probe.
type Phase string

const (
	PhaseSearch      Phase = "search"
	PhaseRefineStart Phase = "refine-start"
	PhaseRefineEnd   Phase = "refine-end"
)

// Probe is a diagnostic event emitted for every classified sector.
type Probe struct {
	Phase  Phase  `json:"phase"`
	Step   int    `json:"step"`
	Sample Sample `json:"sample"`
}

// Match is a discovered region together with the coarse brackets that led
// to it and the samples at its refined edges.
type Match struct {
	Region       Region  `json:"region"`
	StartBracket Bracket `json:"start_bracket"`
	EndBracket   Bracket `json:"end_bracket"`
	StartEdge    Sample  `json:"start_edge"`
	EndEdge      Sample  `json:"end_edge"`
}

// DeviceResult holds the matches found on one scanned device.
type DeviceResult struct {
	Device  string  `json:"device"`
	Size    int64   `json:"size"`
	Matches []Match `json:"matches"`
}
