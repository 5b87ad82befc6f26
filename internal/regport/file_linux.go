// internal/regport/file_linux.go
//go:build linux

package regport

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FilePort accesses registers through pread/pwrite on a character device
// whose file offset is the register address.
type FilePort struct {
	f *os.File
}

// OpenFile opens a register character device read-write.
func OpenFile(path string) (*FilePort, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("regport file: open %s: %w", path, err)
	}
	return &FilePort{f: f}, nil
}

func (p *FilePort) ReadWord(addr uint64) (uint32, error) {
	var b [4]byte
	n, err := unix.Pread(int(p.f.Fd()), b[:], int64(addr))
	if err != nil {
		return 0, err
	}
	if n != 4 {
		return 0, fmt.Errorf("short read: %d bytes", n)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (p *FilePort) WriteWord(addr uint64, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	n, err := unix.Pwrite(int(p.f.Fd()), b[:], int64(addr))
	if err != nil {
		return err
	}
	if n != 4 {
		return fmt.Errorf("short write: %d bytes", n)
	}
	return nil
}

func (p *FilePort) Close() error {
	if p == nil || p.f == nil {
		return nil
	}
	return p.f.Close()
}
