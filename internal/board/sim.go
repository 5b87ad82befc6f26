// internal/board/sim.go
package board

import (
	"github.com/tamzrod/clink-feb/internal/link"
	"github.com/tamzrod/clink-feb/internal/prom"
	"github.com/tamzrod/clink-feb/internal/regport"
	"github.com/tamzrod/clink-feb/internal/sem"
)

// Simulation preloads a SimPort so a Board over it behaves like healthy
// hardware: links up, SEM observing, AxiVersion populated and a working
// PROM on one lane.
type Simulation struct {
	Port  *regport.SimPort
	Flash *prom.SimFlash
}

// PrimeSim populates sp for every FEB of b and attaches a flash emulator
// to flashLane's PROM (SimPort carries a single write hook).
func PrimeSim(sp *regport.SimPort, b *Board, version3 bool, flashLane int) *Simulation {
	layout := link.LayoutFor(version3)
	s := &Simulation{Port: sp}

	for _, f := range b.Lanes() {
		lb := DefaultLinkBase(f.Lane)
		if mon, ok := b.Gate.(*link.PgpMonitor); ok {
			if d := mon.Device(f.Lane); d != nil {
				lb = d.Base()
			}
		}
		off := lb + uint64(layout.Offset)
		sp.Set(off, sp.Peek(off)|1<<layout.Bit)

		semBase := f.Base + OffsetSem
		sp.Set(semBase, uint32(sem.StatusObservation))

		v := f.Base + OffsetAxiVersion
		sp.Set(v+0x000, 0x0300_0001) // FpgaVersion
		sp.Set(v+0x500, 0x0000_F0B0) // DeviceId
		putString(sp, v+0x800, "ClinkFeb: simulated")

		if f.Lane == flashLane {
			s.Flash = prom.AttachSimFlash(sp, f.Base+OffsetProm)
		}
	}
	return s
}

// putString stores s NUL-terminated, four bytes per word, little-endian.
func putString(sp *regport.SimPort, addr uint64, s string) {
	b := append([]byte(s), 0)
	for i := 0; i < len(b); i += 4 {
		var w uint32
		for j := 0; j < 4 && i+j < len(b); j++ {
			w |= uint32(b[i+j]) << (8 * uint(j))
		}
		sp.Set(addr+uint64(i), w)
	}
}
