package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varalys/entroscan/internal/sector"
	"github.com/varalys/entroscan/internal/types"
)

func find(t *testing.T, src Source, cfg Config) Result {
	t.Helper()
	res, err := FindRegions(context.Background(), src, classifier(), cfg)
	require.NoError(t, err)
	return res
}

func TestFindRegions_NoMatchingContent(t *testing.T) {
	src := newSource(t, 8192)
	res := find(t, src, Config{MinSizeBytes: 512})
	assert.Empty(t, res.Matches)
	assert.Empty(t, res.Regions())
	assert.Greater(t, res.Probes, 0)
}

func TestFindRegions_ConcreteScenario(t *testing.T) {
	src := newSource(t, 10000, span{4000, 6000})
	res := find(t, src, Config{MinSizeBytes: 1_000_000})
	require.Len(t, res.Matches, 1)

	r := res.Matches[0].Region
	assert.GreaterOrEqual(t, r.Start, int64(4000*512))
	assert.Less(t, r.Start, int64(4001*512))
	assert.GreaterOrEqual(t, r.End, int64(6000*512-512))
	assert.LessOrEqual(t, r.End, int64(6000*512))
	assert.Equal(t, types.Region{Start: 4000 * 512, End: 6000 * 512}, r)
	assert.Equal(t, int64(1_024_000), r.Size())

	m := res.Matches[0]
	assert.Equal(t, types.Bracket{Low: 2048, High: 4096}, m.StartBracket)
	assert.Equal(t, types.Bracket{Low: 5120, High: 6144}, m.EndBracket)
	assert.Equal(t, int64(4000), m.StartEdge.Sector)
	assert.Equal(t, int64(5999), m.EndEdge.Sector)
	assert.True(t, m.StartEdge.Matches)
	assert.True(t, m.EndEdge.Matches)

	// far fewer reads than sectors on the device
	assert.Less(t, res.SectorsSampled, uint64(300))
	assert.GreaterOrEqual(t, res.BytesRead, int64(res.SectorsSampled)*512)
}

func TestFindRegions_OneRegionWithinOneSector(t *testing.T) {
	tests := []struct {
		name    string
		sectors int64
		region  span
		min     int64
	}{
		{name: "odd offsets", sectors: 8000, region: span{777, 3211}, min: 500 * 512},
		{name: "late region", sectors: 50000, region: span{31337, 40001}, min: 4096 * 512},
		{name: "min not sector aligned", sectors: 4096, region: span{1500, 2500}, min: 700*512 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSource(t, tt.sectors, tt.region)
			res := find(t, src, Config{MinSizeBytes: tt.min})
			require.Len(t, res.Matches, 1)
			r := res.Matches[0].Region
			assert.InDelta(t, tt.region.from*512, r.Start, 512)
			assert.InDelta(t, tt.region.to*512, r.End, 512)
			assert.GreaterOrEqual(t, r.Size(), tt.min)
		})
	}
}

func TestFindRegions_TwoRegionsInOrder(t *testing.T) {
	src := newSource(t, 12000, span{1000, 3000}, span{6000, 9000})
	res := find(t, src, Config{MinSizeBytes: 1000 * 512})
	require.Equal(t, []types.Region{
		{Start: 1000 * 512, End: 3000 * 512},
		{Start: 6000 * 512, End: 9000 * 512},
	}, res.Regions())
	assert.Less(t, res.Matches[0].EndBracket.High, res.Matches[1].StartBracket.High)
}

func TestFindRegions_AdjacentRunsMerge(t *testing.T) {
	src := newSource(t, 8192, span{1000, 2000}, span{2000, 3000})
	res := find(t, src, Config{MinSizeBytes: 512 * 512})
	require.Equal(t, []types.Region{{Start: 1000 * 512, End: 3000 * 512}}, res.Regions())
}

func TestFindRegions_MinSizeLargerThanDevice(t *testing.T) {
	src := newSource(t, 1024, span{0, 1024})
	res := find(t, src, Config{MinSizeBytes: 2048 * 512})
	assert.Empty(t, res.Matches)
	assert.Zero(t, res.Probes)

	// also when only the remaining window is too small
	res = find(t, src, Config{StartByte: 900 * 512, MinSizeBytes: 200 * 512})
	assert.Empty(t, res.Matches)
}

func TestFindRegions_DropsUndersizedAfterRefinement(t *testing.T) {
	// brackets (256,512) and (640,768) span 512 sectors, the run only 188
	src := newSource(t, 4096, span{512, 700})
	res := find(t, src, Config{MinSizeBytes: 300 * 512})
	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, res.Undersized)
}

func TestFindRegions_RegionsAtWindowEdges(t *testing.T) {
	t.Run("device start", func(t *testing.T) {
		src := newSource(t, 4096, span{0, 1500})
		res := find(t, src, Config{MinSizeBytes: 1000 * 512})
		require.Equal(t, []types.Region{{Start: 0, End: 1500 * 512}}, res.Regions())
	})
	t.Run("device end", func(t *testing.T) {
		src := newSource(t, 4096, span{3000, 4096})
		res := find(t, src, Config{MinSizeBytes: 500 * 512})
		require.Equal(t, []types.Region{{Start: 3000 * 512, End: 4096 * 512}}, res.Regions())
	})
	t.Run("start inside region", func(t *testing.T) {
		src := newSource(t, 8192, span{1000, 3000})
		res := find(t, src, Config{StartByte: 1500*512 - 100, MinSizeBytes: 1000 * 512})
		require.Equal(t, []types.Region{{Start: 1500 * 512, End: 3000 * 512}}, res.Regions())
	})
	t.Run("end byte cuts region", func(t *testing.T) {
		src := newSource(t, 8192, span{1000, 3000})
		res := find(t, src, Config{EndByte: 2500 * 512, MinSizeBytes: 1000 * 512})
		require.Equal(t, []types.Region{{Start: 1000 * 512, End: 2500 * 512}}, res.Regions())
	})
}

func TestFindRegions_SkipsRunsNarrowerThanStride(t *testing.T) {
	// probes land on 4096 and 8192; a 100-sector run between them is never seen
	src := newSource(t, 16384, span{5000, 5100})
	res := find(t, src, Config{MinSizeBytes: 50 * 512})
	assert.Empty(t, res.Matches)
}

func TestFindRegions_IOErrorKeepsEarlierRegions(t *testing.T) {
	img := buildImage(t, 12000, span{1000, 3000}, span{6000, 9000})
	cause := errors.New("unrecovered read error")
	src := sector.New(failAfter{r: bytes.NewReader(img), off: 5000 * 512, err: cause}, int64(len(img)))

	res, err := FindRegions(context.Background(), src, classifier(), Config{MinSizeBytes: 1000 * 512})
	require.Error(t, err)
	assert.ErrorIs(t, err, sector.ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []types.Region{{Start: 1000 * 512, End: 3000 * 512}}, res.Regions())
}

func TestFindRegions_Cancelled(t *testing.T) {
	src := newSource(t, 10000, span{4000, 6000})
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	opts := Options{OnProbe: func(types.Probe) {
		calls++
		if calls == 5 {
			cancel()
		}
	}}
	res, err := FindRegions(ctx, src, classifier(), Config{MinSizeBytes: 512, Options: opts})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 5, res.Probes)
}

func TestFindRegions_InvalidConfig(t *testing.T) {
	src := newSource(t, 16)
	_, err := FindRegions(context.Background(), src, classifier(), Config{})
	assert.ErrorIs(t, err, ErrInvalidMinSize)
	_, err = FindRegions(context.Background(), src, classifier(), Config{StartByte: -1, MinSizeBytes: 512})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestFindRegions_ProgressAndDiagnostics(t *testing.T) {
	src := newSource(t, 12000, span{1000, 3000}, span{6000, 9000})
	var positions []int64
	phases := map[types.Phase]int{}
	cfg := Config{
		MinSizeBytes: 1000 * 512,
		Progress: func(pos, end int64) {
			assert.Equal(t, int64(12000*512), end)
			positions = append(positions, pos)
		},
		Options: Options{OnProbe: func(p types.Probe) { phases[p.Phase]++ }},
	}
	res := find(t, src, cfg)
	require.Len(t, res.Matches, 2)

	require.NotEmpty(t, positions)
	for i := 1; i < len(positions); i++ {
		assert.GreaterOrEqual(t, positions[i], positions[i-1])
	}
	assert.Equal(t, int64(12000*512), positions[len(positions)-1])
	assert.Greater(t, phases[types.PhaseSearch], 0)
	assert.Greater(t, phases[types.PhaseRefineStart], 0)
	assert.Greater(t, phases[types.PhaseRefineEnd], 0)
	assert.Equal(t, res.Probes, phases[types.PhaseSearch]+phases[types.PhaseRefineStart]+phases[types.PhaseRefineEnd])
}

func TestFindRegions_LogsProbesAndRegions(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	src := newSource(t, 10000, span{4000, 6000})
	find(t, src, Config{MinSizeBytes: 1_000_000, Options: Options{Logger: &logger}})

	out := buf.String()
	assert.Contains(t, out, `"message":"probe"`)
	assert.Contains(t, out, `"phase":"refine-start"`)
	assert.Contains(t, out, `"message":"region"`)
	assert.Contains(t, out, `"start":2048000`)

	buf.Reset()
	info := zerolog.New(&buf).Level(zerolog.InfoLevel)
	find(t, src, Config{MinSizeBytes: 1_000_000, Options: Options{Logger: &info}})
	assert.NotContains(t, buf.String(), `"message":"probe"`)
	assert.Equal(t, 1, strings.Count(buf.String(), `"message":"region"`))
}
