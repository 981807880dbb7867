package device

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

type localBlob struct {
	f    *os.File
	size int64
}

func (b *localBlob) ReadAt(p []byte, off int64) (int, error) { return b.f.ReadAt(p, off) }
func (b *localBlob) Close() error                            { return b.f.Close() }
func (b *localBlob) Size() int64                             { return b.size }

func openLocal(path string) (*localBlob, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("device: %s is a directory", path)
	}
	size := info.Size()
	if !info.Mode().IsRegular() {
		// block and character devices report no size through stat
		size, err = deviceSize(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("device: size of %s: %w", path, err)
		}
	}
	return &localBlob{f: f, size: size}, nil
}
