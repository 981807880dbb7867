package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/varalys/entroscan/internal/types"
)

// WriteJSON writes devices as indented JSON.
func WriteJSON(w io.Writer, devices []types.DeviceResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(devices)
}

type compressedFile struct {
	io.WriteCloser
	f *os.File
}

func (c *compressedFile) Close() error {
	err := c.WriteCloser.Close()
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Create opens path for writing a report. Files ending in .zst are zstd
// compressed and files ending in .lz4 are lz4 compressed.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		enc, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &compressedFile{WriteCloser: enc, f: f}, nil
	case ".lz4":
		return &compressedFile{WriteCloser: lz4.NewWriter(f), f: f}, nil
	default:
		return f, nil
	}
}

// Open reads a report written by Create, decompressing by extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &decompressedFile{Reader: dec, close: func() { dec.Close() }, f: f}, nil
	case ".lz4":
		return &decompressedFile{Reader: lz4.NewReader(f), f: f}, nil
	default:
		return f, nil
	}
}

type decompressedFile struct {
	io.Reader
	close func()
	f     *os.File
}

func (d *decompressedFile) Close() error {
	if d.close != nil {
		d.close()
	}
	return d.f.Close()
}
