// internal/regport/port.go
package regport

import (
	"errors"
	"fmt"
)

// Port abstracts 32-bit register access on an address space.
// Addresses are absolute byte addresses; implementations must perform
// exactly one 32-bit access per call.
type Port interface {
	ReadWord(addr uint64) (uint32, error)
	WriteWord(addr uint64, v uint32) error
}

// ErrReadOnly is returned when writing a RO field.
var ErrReadOnly = errors.New("regport: field is read-only")

// ErrWriteOnly is returned when reading a WO or strobe field.
var ErrWriteOnly = errors.New("regport: field is write-only")

// TransportError is a register read/write I/O failure.
// It is always surfaced to the caller, never swallowed.
type TransportError struct {
	Op     string // "read" or "write"
	Device string
	Addr   uint64
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("regport: %s %s @0x%08x: %v", e.Op, e.Device, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
