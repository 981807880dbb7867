package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "entroscan.yaml", "min_size: 50GB\njobs: 4\nthreshold: 0.95\nsampling_floor: 1024\ns3:\n  region: eu-west-1\n  path_style: true\n")
	cfg, err := LoadFile(p)
	require.NoError(t, err)

	require.NotNil(t, cfg.MinSize)
	assert.Equal(t, "50GB", *cfg.MinSize)
	require.NotNil(t, cfg.Jobs)
	assert.Equal(t, 4, *cfg.Jobs)
	require.NotNil(t, cfg.Threshold)
	assert.InDelta(t, 0.95, *cfg.Threshold, 1e-12)
	require.NotNil(t, cfg.SamplingFloor)
	assert.Equal(t, int64(1024), *cfg.SamplingFloor)
	assert.Nil(t, cfg.RateLimit)

	s3 := cfg.GetS3()
	assert.Equal(t, "eu-west-1", s3.GetRegion())
	assert.Equal(t, "", s3.GetEndpoint())
	assert.True(t, s3.IsPathStyle())
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "bad.yml", "jobs: [1, 2\n")
	_, err := LoadFile(p)
	assert.Error(t, err)
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "entroscan.yaml", "jobs: 1\n")
	writeTemp(t, dir, ".entroscan.yaml", "jobs: 7\n")
	cfg, err := LoadLocal(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg.Jobs)
	assert.Equal(t, 7, *cfg.Jobs)
}

func TestLoadLocal_NoConfig(t *testing.T) {
	_, err := LoadLocal(t.TempDir())
	assert.Error(t, err)
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "entroscan")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	writeTemp(t, cfgDir, "config.yml", "log_level: debug\n")
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := LoadGlobal()
	require.NoError(t, err)
	require.NotNil(t, cfg.LogLevel)
	assert.Equal(t, "debug", *cfg.LogLevel)
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, err := LoadGlobal()
	assert.Error(t, err)
}

func TestMinIOSecureDefault(t *testing.T) {
	var fc FileConfig
	assert.True(t, fc.IsMinIOSecure())

	off := false
	fc.MinIO = &MinIOConfig{EndpointSecure: &off}
	assert.False(t, fc.IsMinIOSecure())
}

func TestTemplateParses(t *testing.T) {
	var cfg FileConfig
	require.NoError(t, yaml.Unmarshal([]byte(Template), &cfg))
	require.NotNil(t, cfg.MinSize)
	assert.Equal(t, "1GB", *cfg.MinSize)
	assert.Nil(t, cfg.S3)
}
