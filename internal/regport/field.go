// internal/regport/field.go
package regport

import "fmt"

// Mode is the access mode of a register field.
type Mode uint8

const (
	RO     Mode = iota // read-only
	RW                 // read-write; writes are read-modify-write
	WO                 // write-only; other bits of the word are written as zero
	Strobe             // write triggers a hardware action; value is ignored by the device
)

func (m Mode) String() string {
	switch m {
	case RO:
		return "RO"
	case RW:
		return "RW"
	case WO:
		return "WO"
	case Strobe:
		return "strobe"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Field describes one bit-field of a memory-mapped register.
// Geometry only: no semantics.
//
// Offset is the byte offset of the first 32-bit word relative to the device base.
// BitOffset may exceed 31; the field then starts in a following word.
// A field may span two consecutive words (e.g. bits [39:29] of a 40-bit register).
type Field struct {
	Name      string
	Offset    uint32
	BitOffset uint
	BitSize   uint
	Mode      Mode
}

// Validate checks that the field geometry can be handled by the codec.
func (f Field) Validate() error {
	if f.Offset%4 != 0 {
		return fmt.Errorf("regport: field %s: offset 0x%x not word aligned", f.Name, f.Offset)
	}
	if f.BitSize == 0 || f.BitSize > 64 {
		return fmt.Errorf("regport: field %s: bit size %d out of range 1..64", f.Name, f.BitSize)
	}
	if f.BitOffset%32+f.BitSize > 64 {
		return fmt.Errorf("regport: field %s: bits [%d:%d] span more than two words",
			f.Name, f.BitOffset+f.BitSize-1, f.BitOffset)
	}
	return nil
}

// Mask returns the right-aligned value mask of the field.
func (f Field) Mask() uint64 {
	if f.BitSize >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << f.BitSize) - 1
}

// Span returns the byte offset of the first word touched by the field
// and the number of consecutive words it covers (1 or 2).
func (f Field) Span() (first uint32, words int) {
	first = f.Offset + uint32(f.BitOffset/32)*4
	lo := f.BitOffset % 32
	words = int((lo + f.BitSize + 31) / 32)
	return first, words
}

// covers reports whether the field owns every bit of the words it spans,
// in which case a write needs no prior read.
func (f Field) covers() bool {
	_, n := f.Span()
	return f.BitOffset%32 == 0 && f.BitSize == uint(32*n)
}

// Extract decodes the field value from the raw words returned for Span().
// Bits outside the field are discarded, so a wider raw input never leaks
// into the result.
func (f Field) Extract(words []uint32) uint64 {
	return (join(words) >> (f.BitOffset % 32)) & f.Mask()
}

// Insert encodes v into the raw words for Span(), leaving all other bits untouched.
// v must already fit the field.
func (f Field) Insert(words []uint32, v uint64) []uint32 {
	lo := f.BitOffset % 32
	raw := join(words)
	raw &^= f.Mask() << lo
	raw |= (v & f.Mask()) << lo
	return split(raw, len(words))
}

func join(words []uint32) uint64 {
	var v uint64
	for i, w := range words {
		if i > 1 {
			break
		}
		v |= uint64(w) << (32 * uint(i))
	}
	return v
}

func split(v uint64, n int) []uint32 {
	out := make([]uint32, n)
	for i := 0; i < n && i < 2; i++ {
		out[i] = uint32(v >> (32 * uint(i)))
	}
	return out
}
