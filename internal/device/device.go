package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// ErrNotFound is returned when a device or object does not exist.
var ErrNotFound = errors.New("device: not found")

// Blob is a read-only handle with a known size.
type Blob interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// Device is an opened scan target.
type Device struct {
	name string
	blob Blob
}

// New wraps an already opened blob.
func New(name string, blob Blob) *Device { return &Device{name: name, blob: blob} }

// Name returns the target the device was opened from.
func (d *Device) Name() string { return d.name }

// Size returns the device length in bytes.
func (d *Device) Size() int64 { return d.blob.Size() }

// ReadAt implements io.ReaderAt.
func (d *Device) ReadAt(p []byte, off int64) (int, error) { return d.blob.ReadAt(p, off) }

// Close releases the underlying handle.
func (d *Device) Close() error { return d.blob.Close() }

// S3Options configures s3:// targets.
type S3Options struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// MinIOOptions configures minio:// targets. Credentials come from
// MINIO_ACCESS_KEY and MINIO_SECRET_KEY.
type MinIOOptions struct {
	Secure bool
}

// Options configures Open.
type Options struct {
	S3    S3Options
	MinIO MinIOOptions
}

// Target is a parsed scan target.
type Target struct {
	Scheme string // "file", "s3" or "minio"
	Host   string // minio endpoint
	Bucket string
	Key    string
	Path   string // local path
}

// ParseTarget splits a target string into its parts. Anything without an
// s3:// or minio:// prefix is a local path.
func ParseTarget(s string) (Target, error) {
	switch {
	case strings.HasPrefix(s, "s3://"):
		u, err := url.Parse(s)
		if err != nil {
			return Target{}, fmt.Errorf("device: parse %q: %w", s, err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Target{}, fmt.Errorf("device: %q: want s3://bucket/key", s)
		}
		return Target{Scheme: "s3", Bucket: u.Host, Key: key}, nil
	case strings.HasPrefix(s, "minio://"):
		u, err := url.Parse(s)
		if err != nil {
			return Target{}, fmt.Errorf("device: parse %q: %w", s, err)
		}
		bucket, key, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if u.Host == "" || bucket == "" || key == "" {
			return Target{}, fmt.Errorf("device: %q: want minio://host/bucket/key", s)
		}
		return Target{Scheme: "minio", Host: u.Host, Bucket: bucket, Key: key}, nil
	case s == "":
		return Target{}, errors.New("device: empty target")
	default:
		return Target{Scheme: "file", Path: s}, nil
	}
}

// Open opens target read-only. ctx bounds remote requests made through the
// returned device for its whole lifetime.
func Open(ctx context.Context, target string, opts Options) (*Device, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	var blob Blob
	switch t.Scheme {
	case "s3":
		blob, err = openS3(ctx, t, opts.S3)
	case "minio":
		blob, err = openMinIO(ctx, t, opts.MinIO)
	default:
		blob, err = openLocal(t.Path)
	}
	if err != nil {
		return nil, err
	}
	return New(target, blob), nil
}

// Expand resolves glob patterns among local targets. Remote targets and
// plain paths pass through unchanged; a pattern matching nothing is an
// error. The result keeps argument order and drops duplicates.
func Expand(targets []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, t := range targets {
		if strings.Contains(t, "://") || !strings.ContainsAny(t, "*?[{") {
			add(t)
			continue
		}
		matches, err := doublestar.FilepathGlob(t)
		if err != nil {
			return nil, fmt.Errorf("device: bad pattern %q: %w", t, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("device: %q matched nothing", t)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(filepath.Clean(m))
		}
	}
	return out, nil
}
