// internal/sem/address.go
package sem

import "fmt"

// InjectionAddress is the composite injection register.
// All four subfields share one physical register at offset 0x10.
type InjectionAddress struct {
	BitAddress  uint32 // [4:0]
	WordAddress uint32 // [11:5]
	LinearFrame uint32 // [28:12]
	AddrHigh    uint32 // [39:29]
}

// Validate checks every subfield fits its width.
func (a InjectionAddress) Validate() error {
	for _, p := range []struct {
		name string
		v    uint32
		max  uint64
	}{
		{fieldInjectBitAddress.Name, a.BitAddress, fieldInjectBitAddress.Mask()},
		{fieldInjectWordAddress.Name, a.WordAddress, fieldInjectWordAddress.Mask()},
		{fieldInjectLinearFrame.Name, a.LinearFrame, fieldInjectLinearFrame.Mask()},
		{fieldInjectAddrHigh.Name, a.AddrHigh, fieldInjectAddrHigh.Mask()},
	} {
		if uint64(p.v) > p.max {
			return fmt.Errorf("sem: %s 0x%x exceeds 0x%x", p.name, p.v, p.max)
		}
	}
	return nil
}

func (a InjectionAddress) String() string {
	return fmt.Sprintf("frame=0x%05x word=%d bit=%d high=0x%03x", a.LinearFrame, a.WordAddress, a.BitAddress, a.AddrHigh)
}
