package engine

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/varalys/entroscan/internal/entropy"
	"github.com/varalys/entroscan/internal/sector"
)

// span is a half-open sector range filled with pseudorandom bytes.
type span struct{ from, to int64 }

// buildImage returns a device of n zero sectors with the given spans filled
// from a fixed seed, so every run sees the same bytes.
func buildImage(t *testing.T, n int64, spans ...span) []byte {
	t.Helper()
	img := make([]byte, n*512)
	rng := rand.New(rand.NewSource(1337))
	for _, s := range spans {
		if s.from < 0 || s.to > n || s.from >= s.to {
			t.Fatalf("bad span %v for %d sectors", s, n)
		}
		rng.Read(img[s.from*512 : s.to*512])
	}
	return img
}

func newSource(t *testing.T, n int64, spans ...span) *sector.Source {
	t.Helper()
	img := buildImage(t, n, spans...)
	return sector.New(bytes.NewReader(img), int64(len(img)))
}

func classifier() *entropy.Classifier { return entropy.Default() }

// failAfter fails every read at or beyond a byte offset.
type failAfter struct {
	r   *bytes.Reader
	off int64
	err error
}

func (f failAfter) ReadAt(p []byte, off int64) (int, error) {
	if off >= f.off {
		return 0, f.err
	}
	return f.r.ReadAt(p, off)
}
