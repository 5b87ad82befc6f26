// internal/sem/decode_test.go
package sem

import (
	"testing"

	"github.com/tamzrod/clink-feb/internal/regport"
)

func TestDecodeStatus(t *testing.T) {
	cases := []struct {
		raw   uint64
		code  StatusCode
		known bool
		name  string
	}{
		{0, StatusInitialization, true, "Initialization"},
		{2, StatusObservation, true, "Observation"},
		{32, StatusIdle, true, "Idle"},
		{95, StatusHalt, true, "Halt"},
		{3, StatusCode(3), false, "Unknown(3)"},
		{127, StatusCode(127), false, "Unknown(127)"},
	}

	for _, c := range cases {
		got := DecodeStatus(c.raw)
		if got != c.code || got.Known() != c.known || got.String() != c.name {
			t.Fatalf("raw=%d got=%v known=%v want=%v known=%v", c.raw, got, got.Known(), c.name, c.known)
		}
	}
}

func TestReadStatusFlags(t *testing.T) {
	port := regport.NewSimPort()
	dev := regport.NewDevice("sem", port, 0x8000)

	// code=Idle(32), essential=1, uncorrectable=1, junk above bit 8
	port.Set(0x8000, 0xFFFF_FE00|1<<8|1<<7|32)

	st, err := New(dev).ReadStatus()
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if st.Code != StatusIdle || !st.Essential || !st.Uncorrectable {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestReadStatusUnknownIsNotAnError(t *testing.T) {
	port := regport.NewSimPort()
	dev := regport.NewDevice("sem", port, 0)
	port.Set(0x0, 3)

	st, err := New(dev).ReadStatus()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Code.Known() || st.Code.String() != "Unknown(3)" {
		t.Fatalf("expected Unknown(3), got %v", st.Code)
	}
}

func TestReadCountersMasksTo12Bits(t *testing.T) {
	port := regport.NewSimPort()
	dev := regport.NewDevice("sem", port, 0x8000)

	// Simulated hardware drives garbage above bit 11 on every counter word.
	for i := 0; i < NumCounters; i++ {
		port.Set(0x8020+uint64(4*i), 0xABCD_F000|uint32(0xFF0+i))
	}

	cnt, err := New(dev).ReadCounters()
	if err != nil {
		t.Fatalf("read counters: %v", err)
	}
	for i, v := range cnt {
		if v > CounterMax {
			t.Fatalf("counter %d=%d exceeds %d", i, v, CounterMax)
		}
		if want := uint16(0xFF0 + i); v != want {
			t.Fatalf("counter %s got=0x%x want=0x%x", CounterName(i), v, want)
		}
	}

	if DecodeCounter(0x1_0000) != 0 || DecodeCounter(4096) != 0 || DecodeCounter(4095) != 4095 {
		t.Fatalf("DecodeCounter does not truncate to 12 bits")
	}
}

func TestInjectionAddressReadBack(t *testing.T) {
	dev := regport.NewDevice("sem", regport.NewSimPort(), 0x8000)
	c := New(dev)

	if err := dev.WriteField(fieldInjectLinearFrame, 0x1FFFF); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if err := c.InjectIdleState(); err != nil {
		t.Fatalf("idle: %v", err)
	}
	if err := dev.WriteField(fieldInjectBitAddress, 0x15); err != nil {
		t.Fatalf("write bit: %v", err)
	}

	got, err := c.ReadInjectionAddress()
	if err != nil {
		t.Fatalf("read address: %v", err)
	}
	want := InjectionAddress{BitAddress: 0x15, WordAddress: 0, LinearFrame: 0x1FFFF, AddrHigh: 0x700}
	if got != want {
		t.Fatalf("address got=%v want=%v", got, want)
	}
}

func TestFpgaIndex(t *testing.T) {
	port := regport.NewSimPort()
	c := New(regport.NewDevice("sem", port, 0))

	if err := c.SetFpgaIndex(9); err != nil {
		t.Fatalf("set: %v", err)
	}
	n, err := c.FpgaIndex()
	if err != nil || n != 9 {
		t.Fatalf("fpga index got=%d err=%v", n, err)
	}
	if err := c.SetFpgaIndex(16); err == nil {
		t.Fatalf("expected range error for 16")
	}
}
