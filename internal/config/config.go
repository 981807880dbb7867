package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalNames are the file names searched for a working-directory config, in
// order.
var LocalNames = []string{".entroscan.yml", ".entroscan.yaml", "entroscan.yml", "entroscan.yaml"}

// FileConfig is the on-disk YAML configuration shape for entroscan. Sizes
// are strings such as "50GB" and are parsed by the CLI.
type FileConfig struct {
	MinSize       *string  `yaml:"min_size"`
	Start         *string  `yaml:"start"`
	End           *string  `yaml:"end"`
	Threshold     *float64 `yaml:"threshold"`
	RateLimit     *string  `yaml:"rate_limit"`
	Jobs          *int     `yaml:"jobs"`
	SamplingFloor *int64   `yaml:"sampling_floor"`
	NoColor       *bool    `yaml:"no_color"`
	LogLevel      *string  `yaml:"log_level"`
	Baseline      *string  `yaml:"baseline"`
	NoCache       *bool    `yaml:"no_cache"`

	S3    *S3Config    `yaml:"s3"`
	MinIO *MinIOConfig `yaml:"minio"`
}

// S3Config holds settings for s3:// targets.
type S3Config struct {
	Region    *string `yaml:"region"`
	Endpoint  *string `yaml:"endpoint"`
	PathStyle *bool   `yaml:"path_style"`
}

// MinIOConfig holds settings for minio:// targets.
type MinIOConfig struct {
	// EndpointSecure selects https for the MinIO endpoint. Defaults to true.
	EndpointSecure *bool `yaml:"endpoint_secure"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches dir for one of LocalNames.
func LoadLocal(dir string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// GlobalPath returns $XDG_CONFIG_HOME/entroscan/config.yml, falling back to
// ~/.config.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return "", errors.New("no config dir")
	}
	return filepath.Join(base, "entroscan", "config.yml"), nil
}

// LoadGlobal loads the global config file.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p, err := GlobalPath()
	if err != nil {
		return cfg, err
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// GetS3 returns the S3 section, never nil.
func (fc FileConfig) GetS3() S3Config {
	if fc.S3 == nil {
		return S3Config{}
	}
	return *fc.S3
}

// GetRegion returns the configured region or empty string.
func (c S3Config) GetRegion() string {
	if c.Region == nil {
		return ""
	}
	return *c.Region
}

// GetEndpoint returns the configured endpoint or empty string.
func (c S3Config) GetEndpoint() string {
	if c.Endpoint == nil {
		return ""
	}
	return *c.Endpoint
}

// IsPathStyle reports whether path-style addressing is enabled (default false).
func (c S3Config) IsPathStyle() bool {
	return c.PathStyle != nil && *c.PathStyle
}

// IsMinIOSecure reports whether MinIO endpoints use TLS (default true).
func (fc FileConfig) IsMinIOSecure() bool {
	if fc.MinIO == nil || fc.MinIO.EndpointSecure == nil {
		return true
	}
	return *fc.MinIO.EndpointSecure
}

// Template is the body written by `entroscan config init`.
const Template = `# entroscan configuration
# Smallest region worth reporting.
min_size: 1GB
# Byte offset to start scanning from.
start: "0"
# Entropy threshold in [0,1); sectors scoring above it match.
threshold: 0.9
# Read budget per second, empty for unlimited.
# rate_limit: 200MB
jobs: 1
log_level: warn
# baseline: entroscan.baseline.json
# s3:
#   region: us-east-1
#   endpoint: http://localhost:4566
#   path_style: true
# minio:
#   endpoint_secure: false
`
