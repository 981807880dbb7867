package entropy

import (
	"errors"
	"fmt"
	"math"

	"github.com/varalys/entroscan/internal/types"
)

// DefaultThreshold is the score a sector must exceed to count as random.
const DefaultThreshold = 0.9

// ErrEmptySample is returned when scoring a zero-length sample.
var ErrEmptySample = errors.New("entropy: empty sample")

var ln256 = math.Log(256)

// Score returns the base-256 Shannon entropy of data in [0,1].
func Score(data []byte) (float64, error) {
	if len(data) == 0 {
		return 0, ErrEmptySample
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	n := float64(len(data))
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log(p) / ln256
	}
	// rounding can leave a uniform histogram a hair off the bounds
	if h < 0 {
		h = 0
	}
	if h > 1 || math.Abs(h-1) < 1e-12 {
		h = 1
	}
	return h, nil
}

// Classifier applies a threshold predicate to entropy scores.
type Classifier struct {
	Threshold float64
}

// New returns a Classifier. Thresholds outside [0,1) are rejected because no
// score could ever exceed them (or every score would).
func New(threshold float64) (*Classifier, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold >= 1 {
		return nil, fmt.Errorf("entropy: threshold %v out of range [0,1)", threshold)
	}
	return &Classifier{Threshold: threshold}, nil
}

// Default returns a Classifier using DefaultThreshold.
func Default() *Classifier { return &Classifier{Threshold: DefaultThreshold} }

// Matches reports whether data scores strictly above the threshold.
func (c *Classifier) Matches(data []byte) (bool, error) {
	s, err := Score(data)
	if err != nil {
		return false, err
	}
	return s > c.Threshold, nil
}

// Classify scores one sector's data and records its leading bytes.
func (c *Classifier) Classify(sector int64, data []byte) (types.Sample, error) {
	s, err := Score(data)
	if err != nil {
		return types.Sample{Sector: sector}, fmt.Errorf("sector %d: %w", sector, err)
	}
	out := types.Sample{Sector: sector, Entropy: s, Matches: s > c.Threshold}
	copy(out.Head[:], data)
	return out, nil
}
