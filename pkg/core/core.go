package core

import (
	"context"
	"io"

	"github.com/varalys/entroscan/internal/engine"
	"github.com/varalys/entroscan/internal/entropy"
	"github.com/varalys/entroscan/internal/sector"
	"github.com/varalys/entroscan/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type Config = engine.ScanConfig
type Result = engine.ScanResult
type DeviceResult = types.DeviceResult
type Region = types.Region
type Match = types.Match

// SectorSize is the unit every offset is aligned to.
const SectorSize = types.SectorSize

// Scan is the stable entrypoint for other programs. Devices that finished
// before an error are returned with it.
func Scan(ctx context.Context, cfg Config) ([]DeviceResult, error) {
	return engine.Scan(ctx, cfg)
}

// ScanWithStats scans and also returns probe and timing statistics.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	return engine.ScanWithStats(ctx, cfg)
}

// FindRegions locates regions of at least minSizeBytes in r, which holds
// size bytes, starting at startByte. A zero threshold uses the default.
func FindRegions(ctx context.Context, r io.ReaderAt, size, startByte, minSizeBytes int64, threshold float64) ([]Region, error) {
	if threshold == 0 {
		threshold = entropy.DefaultThreshold
	}
	cls, err := entropy.New(threshold)
	if err != nil {
		return nil, err
	}
	res, err := engine.FindRegions(ctx, sector.New(r, size), cls, engine.Config{
		StartByte:    startByte,
		MinSizeBytes: minSizeBytes,
	})
	return res.Regions(), err
}
