//go:build linux

package device

import (
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// deviceSize asks the kernel for a block device's byte size and falls back
// to seeking to the end for anything else.
func deviceSize(f *os.File) (int64, error) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno == 0 {
		return int64(size), nil
	}
	return f.Seek(0, io.SeekEnd)
}
