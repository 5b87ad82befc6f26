// internal/regport/device.go
package regport

import (
	"fmt"
	"sync"
)

// Accessor is the field-level contract consumed by register clients.
type Accessor interface {
	ReadField(f Field) (uint64, error)
	WriteField(f Field, v uint64) error
	Pulse(f Field) error
}

// Device is one register window (base address) on a shared Port.
//
// Locking: one writer at a time per device. Field reads share the lock
// with each other but never overlap an in-flight write or an Exclusive scope.
type Device struct {
	name string
	port Port
	base uint64

	mu sync.RWMutex
}

// NewDevice creates a device window at base on port.
func NewDevice(name string, port Port, base uint64) *Device {
	return &Device{name: name, port: port, base: base}
}

func (d *Device) Name() string { return d.name }
func (d *Device) Base() uint64 { return d.base }

// ReadField reads and decodes one field.
func (d *Device) ReadField(f Field) (uint64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.readField(f)
}

// WriteField encodes and writes one field.
// RW fields are read-modify-write; sibling fields sharing the word keep their value.
func (d *Device) WriteField(f Field, v uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeField(f, v)
}

// Pulse writes 1 to a strobe (or WO) field.
func (d *Device) Pulse(f Field) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pulse(f)
}

// ReadWords reads n consecutive raw words starting at off.
// Used for wide read-only blocks (hashes, strings) that do not fit a Field.
func (d *Device) ReadWords(off uint32, n int) ([]uint32, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]uint32, n)
	for i := range out {
		w, err := d.readWord(off + uint32(4*i))
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// Exclusive runs fn while holding the device write lock.
// Every access made through the Accessor passed to fn is ordered and
// cannot interleave with any other reader or writer of this device.
// fn must not call methods on d itself (the lock is not reentrant).
func (d *Device) Exclusive(fn func(Accessor) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(locked{d})
}

// locked is the Accessor handed out inside Exclusive; the lock is already held.
type locked struct{ d *Device }

func (l locked) ReadField(f Field) (uint64, error)  { return l.d.readField(f) }
func (l locked) WriteField(f Field, v uint64) error { return l.d.writeField(f, v) }
func (l locked) Pulse(f Field) error                { return l.d.pulse(f) }

// ---- unlocked helpers ----

func (d *Device) readField(f Field) (uint64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	if f.Mode == WO || f.Mode == Strobe {
		return 0, fmt.Errorf("%w: %s.%s", ErrWriteOnly, d.name, f.Name)
	}

	words, err := d.readSpan(f)
	if err != nil {
		return 0, err
	}
	return f.Extract(words), nil
}

func (d *Device) writeField(f Field, v uint64) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Mode == RO {
		return fmt.Errorf("%w: %s.%s", ErrReadOnly, d.name, f.Name)
	}
	if v&^f.Mask() != 0 {
		return fmt.Errorf("regport: %s.%s: value 0x%x exceeds %d bits", d.name, f.Name, v, f.BitSize)
	}

	first, n := f.Span()

	var words []uint32
	if f.Mode == RW && !f.covers() {
		cur, err := d.readSpan(f)
		if err != nil {
			return err
		}
		words = cur
	} else {
		words = make([]uint32, n)
	}

	words = f.Insert(words, v)
	for i, w := range words {
		if err := d.writeWord(first+uint32(4*i), w); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) pulse(f Field) error {
	return d.writeField(f, 1)
}

func (d *Device) readSpan(f Field) ([]uint32, error) {
	first, n := f.Span()
	words := make([]uint32, n)
	for i := range words {
		w, err := d.readWord(first + uint32(4*i))
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}

func (d *Device) readWord(off uint32) (uint32, error) {
	addr := d.base + uint64(off)
	w, err := d.port.ReadWord(addr)
	if err != nil {
		return 0, &TransportError{Op: "read", Device: d.name, Addr: addr, Err: err}
	}
	return w, nil
}

func (d *Device) writeWord(off uint32, v uint32) error {
	addr := d.base + uint64(off)
	if err := d.port.WriteWord(addr, v); err != nil {
		return &TransportError{Op: "write", Device: d.name, Addr: addr, Err: err}
	}
	return nil
}
