package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/varalys/entroscan/internal/types"
)

// Source is the sector-addressed view of a device the engine reads from.
// *sector.Source satisfies it.
type Source interface {
	Read(ctx context.Context, index, count int64) ([]byte, error)
	Sectors() int64
	Size() int64
}

// Classifier turns one sector's bytes into a Sample.
// *entropy.Classifier satisfies it.
type Classifier interface {
	Classify(sector int64, data []byte) (types.Sample, error)
}

// Window bounds the sectors a search or refinement may read, as the
// half-open range [Lo, Hi). Sectors outside it are virtual: they classify as
// non-matching without a read. The zero Window means the whole device.
type Window struct {
	Lo int64
	Hi int64
}

// Options carries the collaborators shared by Search, Refine and
// FindRegions.
type Options struct {
	// SamplingFloor is the linear stride cap, in sectors, used once pure
	// doubling would outgrow it. Zero means DefaultSamplingFloor.
	SamplingFloor int64
	// Window restricts Refine. Search and FindRegions derive their own.
	Window Window
	// Logger receives per-probe detail at debug level and per-region
	// summaries at info level. Nil disables logging.
	Logger *zerolog.Logger
	// OnProbe, when set, is called for every classified sector.
	OnProbe func(types.Probe)
}

// prober reads and classifies sectors inside a window, reporting each probe.
type prober struct {
	ctx     context.Context
	src     Source
	cls     Classifier
	win     Window
	log     zerolog.Logger
	onProbe func(types.Probe)
	phase   types.Phase
	probes  int
}

func newProber(ctx context.Context, src Source, cls Classifier, win Window, opts Options) *prober {
	p := &prober{
		ctx:     ctx,
		src:     src,
		cls:     cls,
		win:     win,
		onProbe: opts.OnProbe,
		phase:   types.PhaseSearch,
	}
	if opts.Logger != nil {
		p.log = *opts.Logger
	} else {
		p.log = zerolog.Nop()
	}
	if p.win.Hi > src.Sectors() {
		p.win.Hi = src.Sectors()
	}
	return p
}

func (p *prober) virtual(idx int64) bool { return idx < p.win.Lo || idx >= p.win.Hi }

// sample classifies sector idx. step is the exponent that produced the probe
// and only feeds diagnostics.
func (p *prober) sample(idx int64, step int) (types.Sample, error) {
	if p.virtual(idx) {
		return types.Sample{Sector: idx}, nil
	}
	if err := p.ctx.Err(); err != nil {
		return types.Sample{Sector: idx}, err
	}
	data, err := p.src.Read(p.ctx, idx, 1)
	if err != nil {
		return types.Sample{Sector: idx}, err
	}
	s, err := p.cls.Classify(idx, data)
	if err != nil {
		return s, err
	}
	p.probes++
	p.log.Debug().
		Str("phase", string(p.phase)).
		Int64("sector", idx).
		Int("step", step).
		Float64("entropy", s.Entropy).
		Bool("match", s.Matches).
		Str("head", s.HeadHex()).
		Msg("probe")
	if p.onProbe != nil {
		p.onProbe(types.Probe{Phase: p.phase, Step: step, Sample: s})
	}
	return s, nil
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
