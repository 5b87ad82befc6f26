// internal/regport/open_other.go
//go:build !linux

package regport

import "errors"

var errUnsupported = errors.New("regport: hardware backends require linux")

// MmapPort is unavailable off linux.
type MmapPort struct{}

func OpenMmap(path string, offset int64, size int) (*MmapPort, error) { return nil, errUnsupported }
func (p *MmapPort) ReadWord(addr uint64) (uint32, error)             { return 0, errUnsupported }
func (p *MmapPort) WriteWord(addr uint64, v uint32) error            { return errUnsupported }
func (p *MmapPort) Close() error                                     { return nil }

// FilePort is unavailable off linux.
type FilePort struct{}

func OpenFile(path string) (*FilePort, error)             { return nil, errUnsupported }
func (p *FilePort) ReadWord(addr uint64) (uint32, error)  { return 0, errUnsupported }
func (p *FilePort) WriteWord(addr uint64, v uint32) error { return errUnsupported }
func (p *FilePort) Close() error                          { return nil }
