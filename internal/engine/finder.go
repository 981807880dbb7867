package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/varalys/entroscan/internal/sector"
	"github.com/varalys/entroscan/internal/types"
)

// Config controls one FindRegions run.
type Config struct {
	// StartByte is where scanning begins; it is rounded up to a sector.
	StartByte int64
	// EndByte bounds the scan; zero means the device end.
	EndByte int64
	// MinSizeBytes is the smallest region reported. Every reported region
	// spans at least ceil(MinSizeBytes/512) whole sectors after refinement.
	MinSizeBytes int64
	// Progress, when set, is called with the cursor and end byte offsets
	// each time the cursor advances.
	Progress func(pos, end int64)

	Options
}

// Result contains the regions found and basic scan statistics.
type Result struct {
	Matches []types.Match
	// Undersized counts bracketed runs dropped because refinement left
	// them below the minimum size.
	Undersized     int
	Probes         int
	SectorsSampled uint64
	BytesRead      int64
	Duration       time.Duration
}

// Regions returns the plain regions in discovery order.
func (r Result) Regions() []types.Region {
	out := make([]types.Region, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Region
	}
	return out
}

type statsSource interface {
	Stats() sector.Stats
}

type sourceStats struct {
	sampled uint64
	bytes   int64
}

func readStats(src Source) sourceStats {
	if s, ok := src.(statsSource); ok {
		st := s.Stats()
		return sourceStats{sampled: st.SectorsSampled, bytes: st.BytesRead}
	}
	return sourceStats{}
}

// FindRegions scans src for every region of matching sectors at least
// cfg.MinSizeBytes long, in increasing offset order. On error the matches
// found so far are returned alongside it and stay valid.
func FindRegions(ctx context.Context, src Source, cls Classifier, cfg Config) (res Result, err error) {
	started := time.Now()
	if cfg.MinSizeBytes <= 0 {
		return res, ErrInvalidMinSize
	}
	win, err := byteWindow(src, cfg.StartByte, cfg.EndByte)
	if err != nil {
		return res, err
	}
	minSectors := ceilDiv(cfg.MinSizeBytes, types.SectorSize)
	endByte := win.Hi * types.SectorSize
	before := readStats(src)

	p := newProber(ctx, src, cls, win, cfg.Options)
	defer func() {
		after := readStats(src)
		res.Probes = p.probes
		res.SectorsSampled = after.sampled - before.sampled
		res.BytesRead = after.bytes - before.bytes
		res.Duration = time.Since(started)
	}()

	for cursor := win.Lo; cursor < win.Hi; {
		p.win = Window{Lo: cursor, Hi: win.Hi}
		ft, tf, ok, err := p.search(minSectors, cfg.SamplingFloor)
		if err != nil {
			return res, fmt.Errorf("search from sector %d: %w", cursor, err)
		}
		if !ok {
			break
		}

		p.phase = types.PhaseRefineStart
		first, err := p.refine(ft.High, ft.Low)
		if err != nil {
			return res, fmt.Errorf("refine start bracket %d-%d: %w", ft.Low, ft.High, err)
		}
		p.phase = types.PhaseRefineEnd
		last, err := p.refine(tf.Low, tf.High)
		if err != nil {
			return res, fmt.Errorf("refine end bracket %d-%d: %w", tf.Low, tf.High, err)
		}

		region := types.Region{Start: first.Sector * types.SectorSize, End: (last.Sector + 1) * types.SectorSize}
		if region.Start >= region.End {
			return res, fmt.Errorf("%w: [%d,%d) from brackets %v %v", ErrDegenerateRegion, region.Start, region.End, ft, tf)
		}

		if last.Sector+1-first.Sector < minSectors {
			res.Undersized++
			p.log.Debug().
				Int64("start", region.Start).
				Int64("end", region.End).
				Int64("size", region.Size()).
				Msg("refined region below minimum size")
		} else {
			res.Matches = append(res.Matches, types.Match{
				Region:       region,
				StartBracket: ft,
				EndBracket:   tf,
				StartEdge:    first,
				EndEdge:      last,
			})
			p.log.Info().
				Int64("start", region.Start).
				Int64("end", region.End).
				Int64("size", region.Size()).
				Float64("start_entropy", first.Entropy).
				Float64("end_entropy", last.Entropy).
				Msg("region")
		}

		cursor = tf.High
		if cfg.Progress != nil {
			cfg.Progress(min(cursor*types.SectorSize, endByte), endByte)
		}
	}
	if cfg.Progress != nil {
		cfg.Progress(endByte, endByte)
	}
	return res, nil
}
