// internal/sem/registers.go
package sem

import "github.com/tamzrod/clink-feb/internal/regport"

// SEM register map. Offsets are relative to the SEM device base.
// These values are defined by the firmware and MUST NOT be configurable.

var (
	fieldStatus        = regport.Field{Name: "SemStatus", Offset: 0x00, BitOffset: 0, BitSize: 7, Mode: regport.RO}
	fieldEssential     = regport.Field{Name: "Essential", Offset: 0x00, BitOffset: 7, BitSize: 1, Mode: regport.RO}
	fieldUncorrectable = regport.Field{Name: "Uncorrectable", Offset: 0x00, BitOffset: 8, BitSize: 1, Mode: regport.RO}
	fieldHeartbeat     = regport.Field{Name: "HeartbeatCount", Offset: 0x04, BitOffset: 0, BitSize: 32, Mode: regport.RO}

	fieldInjectStrobe = regport.Field{Name: "InjectStrobe", Offset: 0x0C, BitOffset: 0, BitSize: 1, Mode: regport.Strobe}

	fieldInjectBitAddress  = regport.Field{Name: "InjectBitAddress", Offset: 0x10, BitOffset: 0, BitSize: 5, Mode: regport.RW}
	fieldInjectWordAddress = regport.Field{Name: "InjectWordAddress", Offset: 0x10, BitOffset: 5, BitSize: 7, Mode: regport.RW}
	fieldInjectLinearFrame = regport.Field{Name: "InjectLinearFrame", Offset: 0x10, BitOffset: 12, BitSize: 17, Mode: regport.RW}
	fieldInjectAddrHigh    = regport.Field{Name: "InjectAddrHigh", Offset: 0x10, BitOffset: 29, BitSize: 11, Mode: regport.RW}

	fieldFpgaIndex = regport.Field{Name: "FpgaIndex", Offset: 0xFC, BitOffset: 0, BitSize: 4, Mode: regport.RW}
)

// counterBase is the offset of Count[0]; Count[i] lives at counterBase+4*i.
const counterBase = 0x20

// CounterBits is the hardware width of every SEM counter.
const CounterBits = 12

// CounterMax is the largest value a SEM counter register can hold.
const CounterMax = 1<<CounterBits - 1

func counterField(i int) regport.Field {
	return regport.Field{
		Name:      counterNames[i],
		Offset:    counterBase + uint32(4*i),
		BitOffset: 0,
		BitSize:   CounterBits,
		Mode:      regport.RO,
	}
}

// ---- AddrHigh transition codes ----
// Written pre-shifted right by one (observed encoding).

const (
	CodeIdle        uint64 = 0xE00 >> 1 // 0x700
	CodeObservation uint64 = 0xA00 >> 1 // 0x500
	CodeErrorInject uint64 = 0xC00 >> 1 // 0x600
	CodeReset       uint64 = 0xB00 >> 1 // 0x580
)

// Fields exposes the register map for tooling (semctl dump) and tests.
func Fields() []regport.Field {
	out := []regport.Field{
		fieldStatus, fieldEssential, fieldUncorrectable, fieldHeartbeat,
		fieldInjectStrobe,
		fieldInjectBitAddress, fieldInjectWordAddress, fieldInjectLinearFrame, fieldInjectAddrHigh,
	}
	for i := range counterNames {
		out = append(out, counterField(i))
	}
	return append(out, fieldFpgaIndex)
}
