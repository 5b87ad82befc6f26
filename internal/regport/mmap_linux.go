// internal/regport/mmap_linux.go
//go:build linux

package regport

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapPort maps a window of a PCIe BAR resource file or /dev/mem.
// Address 0 of the port is the first byte of the window.
type MmapPort struct {
	f   *os.File
	mem []byte
}

// OpenMmap maps size bytes of path starting at offset.
func OpenMmap(path string, offset int64, size int) (*MmapPort, error) {
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("regport mmap: size %d must be a positive multiple of 4", size)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("regport mmap: open %s: %w", path, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), offset, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("regport mmap: map %s: %w", path, err)
	}

	return &MmapPort{f: f, mem: mem}, nil
}

func (p *MmapPort) word(addr uint64) (*uint32, error) {
	if addr%4 != 0 {
		return nil, fmt.Errorf("unaligned address 0x%x", addr)
	}
	if addr+4 > uint64(len(p.mem)) {
		return nil, fmt.Errorf("address 0x%x outside %d byte window", addr, len(p.mem))
	}
	return (*uint32)(unsafe.Pointer(&p.mem[addr])), nil
}

// ReadWord performs a single 32-bit load.
func (p *MmapPort) ReadWord(addr uint64) (uint32, error) {
	w, err := p.word(addr)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(w), nil
}

// WriteWord performs a single 32-bit store.
func (p *MmapPort) WriteWord(addr uint64, v uint32) error {
	w, err := p.word(addr)
	if err != nil {
		return err
	}
	atomic.StoreUint32(w, v)
	return nil
}

// Close unmaps the window and closes the file.
func (p *MmapPort) Close() error {
	if p == nil || p.mem == nil {
		return nil
	}
	err := unix.Munmap(p.mem)
	p.mem = nil
	if cerr := p.f.Close(); err == nil {
		err = cerr
	}
	return err
}
