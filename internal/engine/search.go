package engine

import (
	"context"

	"github.com/varalys/entroscan/internal/types"
)

// DefaultSamplingFloor is ceil(3 GiB / 512): once doubling would overtake
// SamplingFloor*i sectors, strides grow linearly instead.
const DefaultSamplingFloor = (3<<30 + types.SectorSize - 1) / types.SectorSize

// stride returns the probe distance for exponent i.
func stride(i int, floor int64) int64 {
	if i <= 0 {
		return 1
	}
	if floor <= 0 {
		floor = DefaultSamplingFloor
	}
	lin := floor * int64(i)
	if i >= 62 {
		return lin
	}
	if exp := int64(1) << i; exp < lin {
		return exp
	}
	return lin
}

// searchState is the per-call state of a gallop search.
type searchState struct {
	base      int64
	i         int
	prev      bool
	lastTrue  int64
	lastFalse int64
	lastProbe int64
	start     types.Bracket
	haveStart bool
}

func (st *searchState) rebase(sector int64) {
	st.base = sector
	st.i = 0
}

// Search gallops from startByte toward endByte looking for a run of matching
// sectors whose coarse span is at least minSizeBytes. It returns the
// false-to-true and true-to-false brackets around that run, or two zero
// brackets when no run qualifies before endByte. An endByte of zero or past
// the device means the device end.
//
// Runs narrower than the stride active where they sit can be stepped over.
func Search(ctx context.Context, src Source, cls Classifier, startByte, endByte, minSizeBytes int64, opts Options) (types.Bracket, types.Bracket, error) {
	if minSizeBytes <= 0 {
		return types.Bracket{}, types.Bracket{}, ErrInvalidMinSize
	}
	win, err := byteWindow(src, startByte, endByte)
	if err != nil {
		return types.Bracket{}, types.Bracket{}, err
	}
	p := newProber(ctx, src, cls, win, opts)
	ft, tf, ok, err := p.search(ceilDiv(minSizeBytes, types.SectorSize), opts.SamplingFloor)
	if err != nil || !ok {
		return types.Bracket{}, types.Bracket{}, err
	}
	return ft, tf, nil
}

// byteWindow converts a byte range to the sector window it fully covers.
func byteWindow(src Source, startByte, endByte int64) (Window, error) {
	if startByte < 0 {
		return Window{}, ErrInvalidRange
	}
	total := src.Sectors()
	hi := total
	if endByte > 0 {
		if endByte < startByte {
			return Window{}, ErrInvalidRange
		}
		if e := endByte / types.SectorSize; e < hi {
			hi = e
		}
	}
	return Window{Lo: ceilDiv(startByte, types.SectorSize), Hi: hi}, nil
}

// search runs the gallop over p.win. ok is false when nothing qualified.
func (p *prober) search(minSectors, floor int64) (ft, tf types.Bracket, ok bool, err error) {
	p.phase = types.PhaseSearch
	lo, hi := p.win.Lo, p.win.Hi
	if hi <= lo || hi-lo < minSectors {
		return ft, tf, false, nil
	}

	st := searchState{base: lo, lastProbe: lo}
	first, err := p.sample(lo, 0)
	if err != nil {
		return ft, tf, false, err
	}
	st.prev = first.Matches
	if first.Matches {
		// the run may have started before the window; bound it there
		st.start = types.Bracket{Low: lo - 1, High: lo}
		st.haveStart = true
		st.lastTrue = lo
	} else {
		st.lastFalse = lo
	}

	for {
		probe := st.base + stride(st.i, floor)
		if probe >= hi {
			if st.lastProbe < hi-1 {
				probe = hi - 1
			} else {
				if st.prev && st.haveStart {
					end := types.Bracket{Low: st.lastTrue, High: hi}
					if end.High-st.start.Low >= minSectors {
						return st.start, end, true, nil
					}
				}
				return ft, tf, false, nil
			}
		}

		s, err := p.sample(probe, st.i)
		if err != nil {
			return ft, tf, false, err
		}
		st.lastProbe = probe

		switch {
		case s.Matches && !st.prev:
			st.start = types.Bracket{Low: st.lastFalse, High: probe}
			st.haveStart = true
			st.rebase(probe)
		case !s.Matches && st.prev:
			end := types.Bracket{Low: st.lastTrue, High: probe}
			if st.haveStart && end.High-st.start.Low >= minSectors {
				return st.start, end, true, nil
			}
			p.log.Debug().
				Int64("from", st.start.Low).
				Int64("to", end.High).
				Int64("min_sectors", minSectors).
				Msg("run below minimum size")
			st.haveStart = false
			st.rebase(probe)
		default:
			st.i++
		}
		if s.Matches {
			st.lastTrue = probe
		} else {
			st.lastFalse = probe
		}
		st.prev = s.Matches
	}
}
