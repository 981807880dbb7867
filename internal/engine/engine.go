package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/varalys/entroscan/internal/cache"
	"github.com/varalys/entroscan/internal/device"
	"github.com/varalys/entroscan/internal/entropy"
	"github.com/varalys/entroscan/internal/sector"
	"github.com/varalys/entroscan/internal/types"
)

// ScanConfig controls a scan over one or more devices.
type ScanConfig struct {
	Targets       []string
	StartByte     int64
	EndByte       int64
	MinSizeBytes  int64
	Threshold     float64
	SamplingFloor int64
	// RateLimit caps bytes read per second on each device. Zero is unlimited.
	RateLimit int64
	// Jobs bounds how many devices are scanned at once. Values below one
	// mean one.
	Jobs     int
	NoCache  bool
	CacheDir string
	Device   device.Options
	Logger   *zerolog.Logger

	Progress func(target string, pos, end int64)
	OnProbe  func(target string, p types.Probe)
}

// ScanResult holds per-device results in target order plus totals.
type ScanResult struct {
	Devices        []types.DeviceResult
	Undersized     int
	Probes         int
	SectorsSampled uint64
	BytesRead      int64
	CacheHits      int
	Duration       time.Duration
}

// Scan runs a scan and returns only the device results. On error the
// devices that finished are still returned.
func Scan(ctx context.Context, cfg ScanConfig) ([]types.DeviceResult, error) {
	res, err := ScanWithStats(ctx, cfg)
	return res.Devices, err
}

type deviceOutcome struct {
	result   Result
	device   types.DeviceResult
	cacheKey string
	cached   bool
}

// ScanWithStats scans every target and returns results with statistics.
// Results keep the order of cfg.Targets regardless of completion order.
// When a target fails the error is returned alongside the devices that
// completed.
func ScanWithStats(ctx context.Context, cfg ScanConfig) (ScanResult, error) {
	var result ScanResult
	started := time.Now()

	if cfg.MinSizeBytes <= 0 {
		return result, ErrInvalidMinSize
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = entropy.DefaultThreshold
	}
	cls, err := entropy.New(cfg.Threshold)
	if err != nil {
		return result, err
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	db := cache.DB{Entries: map[string]cache.Entry{}}
	if !cfg.NoCache && cfg.CacheDir != "" {
		db, _ = cache.Load(cfg.CacheDir)
	}
	var dbMu sync.Mutex

	outcomes := make([]deviceOutcome, len(cfg.Targets))
	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, target := range cfg.Targets {
		g.Go(func() error {
			dl := log.With().Str("device", target).Logger()
			out, err := scanDevice(gctx, cfg, target, cls, &dl, func(key string) (cache.Entry, bool) {
				dbMu.Lock()
				defer dbMu.Unlock()
				return db.Lookup(key)
			})
			outcomes[i] = out
			if err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}
			return nil
		})
	}
	err = g.Wait()

	for _, out := range outcomes {
		if out.device.Device == "" {
			continue
		}
		result.Devices = append(result.Devices, out.device)
		result.Undersized += out.result.Undersized
		result.Probes += out.result.Probes
		result.SectorsSampled += out.result.SectorsSampled
		result.BytesRead += out.result.BytesRead
		if out.cached {
			result.CacheHits++
		} else if out.cacheKey != "" && err == nil {
			db.Put(out.cacheKey, cache.Entry{
				Device:     out.device.Device,
				Matches:    out.device.Matches,
				Undersized: out.result.Undersized,
			})
		}
	}
	result.Duration = time.Since(started)
	if err != nil {
		return result, err
	}
	if !cfg.NoCache && cfg.CacheDir != "" && len(cfg.Targets) > result.CacheHits {
		if serr := cache.Save(cfg.CacheDir, db); serr != nil {
			log.Warn().Err(serr).Msg("saving result cache")
		}
	}
	return result, nil
}

func scanDevice(ctx context.Context, cfg ScanConfig, target string, cls *entropy.Classifier, log *zerolog.Logger, lookup func(string) (cache.Entry, bool)) (deviceOutcome, error) {
	var out deviceOutcome

	dev, err := device.Open(ctx, target, cfg.Device)
	if err != nil {
		return out, err
	}
	defer func() { _ = dev.Close() }()

	var opts []sector.Option
	if cfg.RateLimit > 0 {
		opts = append(opts, sector.WithRateLimit(cfg.RateLimit))
	}
	src := sector.New(dev, dev.Size(), opts...)

	if !cfg.NoCache && cfg.CacheDir != "" {
		key, err := fingerprint(ctx, src, target, cfg)
		if err != nil {
			return out, err
		}
		out.cacheKey = key
		if e, ok := lookup(key); ok {
			log.Info().Str("key", key).Int("regions", len(e.Matches)).Msg("cached result")
			out.cached = true
			out.result.Undersized = e.Undersized
			out.device = types.DeviceResult{Device: target, Size: dev.Size(), Matches: e.Matches}
			if cfg.Progress != nil {
				cfg.Progress(target, dev.Size(), dev.Size())
			}
			return out, nil
		}
	}

	fc := Config{
		StartByte:    cfg.StartByte,
		EndByte:      cfg.EndByte,
		MinSizeBytes: cfg.MinSizeBytes,
		Options: Options{
			SamplingFloor: cfg.SamplingFloor,
			Logger:        log,
		},
	}
	if cfg.Progress != nil {
		fc.Progress = func(pos, end int64) { cfg.Progress(target, pos, end) }
	}
	if cfg.OnProbe != nil {
		fc.OnProbe = func(p types.Probe) { cfg.OnProbe(target, p) }
	}

	res, err := FindRegions(ctx, src, cls, fc)
	out.result = res
	out.device = types.DeviceResult{Device: target, Size: dev.Size(), Matches: res.Matches}
	if out.device.Matches == nil {
		out.device.Matches = []types.Match{}
	}
	return out, err
}

// fingerprint keys the result cache on the device's identity and the scan
// parameters. The first and last whole sectors stand in for content.
func fingerprint(ctx context.Context, src *sector.Source, target string, cfg ScanConfig) (string, error) {
	var head, tail []byte
	if n := src.Sectors(); n > 0 {
		var err error
		if head, err = src.Read(ctx, 0, 1); err != nil {
			return "", err
		}
		if tail, err = src.Read(ctx, n-1, 1); err != nil {
			return "", err
		}
	}
	return cache.Fingerprint(target, src.Size(), head, tail, cache.Params{
		StartByte:     cfg.StartByte,
		EndByte:       cfg.EndByte,
		MinSizeBytes:  cfg.MinSizeBytes,
		Threshold:     cfg.Threshold,
		SamplingFloor: cfg.SamplingFloor,
	}), nil
}

// Inspect classifies count sectors of target starting at first.
func Inspect(ctx context.Context, target string, first, count int64, threshold float64, opts device.Options) ([]types.Sample, error) {
	if threshold == 0 {
		threshold = entropy.DefaultThreshold
	}
	cls, err := entropy.New(threshold)
	if err != nil {
		return nil, err
	}
	dev, err := device.Open(ctx, target, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dev.Close() }()

	src := sector.New(dev, dev.Size())
	data, err := src.Read(ctx, first, count)
	if err != nil {
		return nil, err
	}
	samples := make([]types.Sample, 0, count)
	for i := int64(0); i < count; i++ {
		s, err := cls.Classify(first+i, data[i*types.SectorSize:(i+1)*types.SectorSize])
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}
