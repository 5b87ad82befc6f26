// internal/prom/simflash.go
package prom

import (
	"sync"

	"github.com/tamzrod/clink-feb/internal/regport"
)

// SimFlash emulates an S25FL behind the SPI engine of a SimPort.
// Erased bytes read 0xFF; page program ANDs data into the array; erase and
// program require a preceding write enable.
type SimFlash struct {
	port *regport.SimPort
	base uint64

	mu      sync.Mutex
	mem     map[uint32]byte // absent = erased
	wel     bool
	ops     []byte
	erased  []uint32
	wipLeft int
	wipSet  int
	stuck   map[uint32]byte
	sector  uint32
}

// AttachSimFlash installs the emulator as the write hook of port.
// base is the PROM register block address.
func AttachSimFlash(port *regport.SimPort, base uint64) *SimFlash {
	f := &SimFlash{
		port:   port,
		base:   base,
		mem:    make(map[uint32]byte),
		stuck:  make(map[uint32]byte),
		sector: 64 * 1024,
	}
	port.OnWrite(f.onWrite)
	return f
}

// SetBusyPolls makes RDSR report WIP for n polls after every erase or program.
func (f *SimFlash) SetBusyPolls(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wipSet = n
}

// StickBits forces mask bits low when addr is read back.
func (f *SimFlash) StickBits(addr uint32, mask byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stuck[addr] = mask
}

// ByteAt returns the array content at addr.
func (f *SimFlash) ByteAt(addr uint32) byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(addr)
}

// Erased returns erased sector addresses in issue order.
func (f *SimFlash) Erased() []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint32(nil), f.erased...)
}

// OpCount returns how many times opcode op was issued.
func (f *SimFlash) OpCount(op byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.ops {
		if o == op {
			n++
		}
	}
	return n
}

func (f *SimFlash) onWrite(addr uint64, v uint32) {
	if addr != f.base+uint64(fieldCmd.Offset) {
		return
	}
	op := byte(v)
	n := int(v>>cmdLenShift) & 0x1FF
	a := f.port.Peek(f.base + uint64(fieldAddr.Offset))
	data := f.base + dataBase

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)

	switch op {
	case opWriteEnable:
		f.wel = true

	case opReadStatus:
		st := uint32(0)
		if f.wipLeft > 0 {
			f.wipLeft--
			st = statusWIP
		}
		if f.wel {
			st |= 0x02
		}
		f.port.Set(data, st)

	case opSectorErase:
		if !f.wel {
			return
		}
		f.wel = false
		a &^= f.sector - 1
		f.erased = append(f.erased, a)
		for k := range f.mem {
			if k >= a && k < a+f.sector {
				delete(f.mem, k)
			}
		}
		f.wipLeft = f.wipSet

	case opPageProgram:
		if !f.wel {
			return
		}
		f.wel = false
		for i := 0; i < n; i++ {
			w := f.port.Peek(data + uint64(4*(i/4)))
			b := byte(w >> (8 * uint(i%4)))
			f.mem[a+uint32(i)] = f.read(a+uint32(i)) & b
		}
		f.wipLeft = f.wipSet

	case opRead:
		words := make([]uint32, (n+3)/4)
		for i := 0; i < n; i++ {
			b := f.read(a + uint32(i))
			if mask, ok := f.stuck[a+uint32(i)]; ok {
				b &^= mask
			}
			words[i/4] |= uint32(b) << (8 * uint(i%4))
		}
		for i, w := range words {
			f.port.Set(data+uint64(4*i), w)
		}
	}
}

func (f *SimFlash) read(a uint32) byte {
	if b, ok := f.mem[a]; ok {
		return b
	}
	return 0xFF
}
