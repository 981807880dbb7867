package engine

import (
	"context"
	"fmt"

	"github.com/varalys/entroscan/internal/types"
)

// Refine homes in on the boundary between matchSide, which must classify as
// matching, and oppositeSide, which is expected not to. It returns the last
// matching sector met walking from matchSide toward oppositeSide.
//
// Probes double their distance from the current base while they match. On
// the first miss the base moves to the last matching probe and the distance
// resets; a miss at distance one means the base is the edge.
func Refine(ctx context.Context, src Source, cls Classifier, matchSide, oppositeSide int64, opts Options) (int64, error) {
	win := opts.Window
	if win == (Window{}) {
		win = Window{Lo: 0, Hi: src.Sectors()}
	}
	p := newProber(ctx, src, cls, win, opts)
	p.phase = types.PhaseRefineStart
	if oppositeSide > matchSide {
		p.phase = types.PhaseRefineEnd
	}
	edge, err := p.refine(matchSide, oppositeSide)
	if err != nil {
		return 0, err
	}
	return edge.Sector, nil
}

// refine returns the sample of the edge sector.
func (p *prober) refine(matchSide, oppositeSide int64) (types.Sample, error) {
	edge, err := p.sample(matchSide, 0)
	if err != nil {
		return edge, err
	}
	if !edge.Matches {
		return edge, fmt.Errorf("%w: sector %d (entropy %.4f)", ErrPreconditionViolation, matchSide, edge.Entropy)
	}
	if matchSide == oppositeSide {
		return edge, nil
	}

	dir := int64(1)
	if oppositeSide < matchSide {
		dir = -1
	}
	base := matchSide
	var last types.Sample
	i := 0
	for {
		step := int64(1) << i
		probe := base + dir*step

		var s types.Sample
		if dir*(probe-oppositeSide) > 0 {
			// beyond the bracket: known non-matching, nothing to read
			s = types.Sample{Sector: probe}
		} else {
			s, err = p.sample(probe, i)
			if err != nil {
				return edge, err
			}
			if probe == oppositeSide && s.Matches {
				return edge, &EdgeError{MatchSide: matchSide, OppositeSide: oppositeSide, Probe: probe}
			}
		}

		if s.Matches {
			last = s
			i++
			continue
		}
		if i == 0 {
			return edge, nil
		}
		base += dir * (step / 2)
		edge = last
		i = 0
	}
}
