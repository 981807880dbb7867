// Package sector provides sector-addressed, read-only access to a device or
// image exposed as an io.ReaderAt.
package sector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/time/rate"

	"github.com/varalys/entroscan/internal/types"
)

var (
	// ErrOutOfRange is matched by errors for reads outside the device.
	ErrOutOfRange = errors.New("sector: read out of range")
	// ErrIO is matched by errors from the underlying store.
	ErrIO = errors.New("sector: read failed")
)

// RangeError describes a read span that does not fit the device.
type RangeError struct {
	Index   int64
	Count   int64
	Sectors int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("sector: span [%d,%d) outside device of %d sectors", e.Index, e.Index+e.Count, e.Sectors)
}

func (e *RangeError) Is(target error) bool { return target == ErrOutOfRange }

// ReadError wraps a failure from the underlying store.
type ReadError struct {
	Index int64
	Count int64
	Err   error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("sector: read %d sector(s) at %d: %v", e.Count, e.Index, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool { return target == ErrIO }

// Stats summarizes the reads a Source has served.
type Stats struct {
	Reads          int64
	BytesRead      int64
	SectorsSampled uint64
}

// Option configures a Source.
type Option func(*Source)

// WithRateLimit caps reads at bytesPerSec. Zero or negative disables it.
func WithRateLimit(bytesPerSec int64) Option {
	return func(s *Source) {
		if bytesPerSec <= 0 {
			s.limiter = nil
			return
		}
		burst := int(bytesPerSec)
		if burst < types.SectorSize {
			burst = types.SectorSize
		}
		s.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), burst)
	}
}

// WithReadHook registers fn to run after every successful read.
func WithReadHook(fn func(index, count int64)) Option {
	return func(s *Source) { s.hook = fn }
}

// Source reads whole sectors from a seekable, read-only store.
type Source struct {
	r       io.ReaderAt
	size    int64
	limiter *rate.Limiter
	hook    func(index, count int64)

	mu      sync.Mutex
	stats   Stats
	sampled *roaring64.Bitmap
}

// New wraps r, whose length is size bytes.
func New(r io.ReaderAt, size int64, opts ...Option) *Source {
	if size < 0 {
		size = 0
	}
	s := &Source{r: r, size: size, sampled: roaring64.New()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Size returns the store length in bytes.
func (s *Source) Size() int64 { return s.size }

// Sectors returns how many whole sectors are addressable. A trailing partial
// sector is not.
func (s *Source) Sectors() int64 { return s.size / types.SectorSize }

// Read returns count sectors starting at index.
func (s *Source) Read(ctx context.Context, index, count int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	total := s.Sectors()
	if index < 0 || count <= 0 || index > total-count {
		return nil, &RangeError{Index: index, Count: count, Sectors: total}
	}
	n := count * types.SectorSize
	if err := s.wait(ctx, n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	got, err := s.r.ReadAt(buf, index*types.SectorSize)
	if got == len(buf) {
		// io.ReaderAt may report io.EOF together with a full buffer
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &ReadError{Index: index, Count: count, Err: err}
	}

	s.mu.Lock()
	s.stats.Reads++
	s.stats.BytesRead += n
	s.sampled.AddRange(uint64(index), uint64(index+count))
	s.mu.Unlock()

	if s.hook != nil {
		s.hook(index, count)
	}
	return buf, nil
}

func (s *Source) wait(ctx context.Context, n int64) error {
	if s.limiter == nil {
		return nil
	}
	burst := int64(s.limiter.Burst())
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := s.limiter.WaitN(ctx, int(chunk)); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		n -= chunk
	}
	return nil
}

// Stats returns a snapshot of the read counters.
func (s *Source) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.SectorsSampled = s.sampled.GetCardinality()
	return st
}
