package entroscan

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/varalys/entroscan/internal/cache"
	"github.com/varalys/entroscan/internal/config"
	"github.com/varalys/entroscan/internal/device"
	"github.com/varalys/entroscan/internal/logging"
)

// configs holds the local and global config files, either possibly empty.
type configs struct {
	local  config.FileConfig
	global config.FileConfig
}

func loadConfigs() configs {
	var c configs
	if g, err := config.LoadGlobal(); err == nil {
		c.global = g
	}
	if wd, err := os.Getwd(); err == nil {
		if l, err := config.LoadLocal(wd); err == nil {
			c.local = l
		}
	}
	return c
}

func (c configs) noColor() bool {
	return pickBool(flagNoColor, c.local.NoColor, c.global.NoColor)
}

func (c configs) baselinePath() string {
	if p := pickString(flagBaseline, c.local.Baseline, c.global.Baseline); p != "" {
		return p
	}
	return defaultBaselineFile
}

func (c configs) noCache() bool {
	return pickBool(flagNoCache, c.local.NoCache, c.global.NoCache)
}

func (c configs) logger() zerolog.Logger {
	level := pickString(flagLogLevel, c.local.LogLevel, c.global.LogLevel)
	if level == "" {
		level = "warn"
	}
	return logging.NewWithComponent(logging.Config{
		Level:   level,
		Pretty:  !flagLogJSON,
		NoColor: c.noColor(),
		Output:  os.Stderr,
	}, "cli")
}

func (c configs) deviceOptions() device.Options {
	ls, gs := c.local.GetS3(), c.global.GetS3()
	pathStyle := ls.PathStyle
	if pathStyle == nil {
		pathStyle = gs.PathStyle
	}
	secure := c.global.IsMinIOSecure()
	if c.local.MinIO != nil && c.local.MinIO.EndpointSecure != nil {
		secure = *c.local.MinIO.EndpointSecure
	}
	return device.Options{
		S3: device.S3Options{
			Region:    pickString("", ls.Region, gs.Region),
			Endpoint:  pickString("", ls.Endpoint, gs.Endpoint),
			PathStyle: pathStyle != nil && *pathStyle,
		},
		MinIO: device.MinIOOptions{Secure: secure},
	}
}

// cacheDir returns the directory for the result cache and scan history, or
// an empty string when none can be determined.
func cacheDir() string {
	dir, err := cache.Dir()
	if err != nil {
		return ""
	}
	return dir
}

// parseSize accepts sizes such as "512", "50GB" or "1.5GiB". Empty is zero.
func parseSize(name, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("invalid %s %q: too large", name, s)
	}
	return int64(n), nil
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickInt64(cli int64, local, global *int64) int64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickFloat(cli float64, local, global *float64) float64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}
