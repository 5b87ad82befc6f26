// internal/regport/sim.go
package regport

import (
	"sort"
	"sync"
)

// WordWrite is one recorded raw write.
type WordWrite struct {
	Addr  uint64
	Value uint32
}

// SimPort is an in-memory register file.
// Unwritten words read as zero. Every write is recorded in order.
type SimPort struct {
	mu     sync.Mutex
	words  map[uint64]uint32
	writes []WordWrite

	readFault  func(addr uint64) error
	writeFault func(addr uint64) error
	onWrite    func(addr uint64, v uint32)
}

// NewSimPort creates an empty simulated address space.
func NewSimPort() *SimPort {
	return &SimPort{words: make(map[uint64]uint32)}
}

func (s *SimPort) ReadWord(addr uint64) (uint32, error) {
	s.mu.Lock()
	fault := s.readFault
	s.mu.Unlock()

	if fault != nil {
		if err := fault(addr); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.words[addr], nil
}

func (s *SimPort) WriteWord(addr uint64, v uint32) error {
	s.mu.Lock()
	fault := s.writeFault
	s.mu.Unlock()

	if fault != nil {
		if err := fault(addr); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.words[addr] = v
	s.writes = append(s.writes, WordWrite{Addr: addr, Value: v})
	hook := s.onWrite
	s.mu.Unlock()

	// Hook runs unlocked so simulated peripherals may Set() results.
	if hook != nil {
		hook(addr, v)
	}
	return nil
}

// Set preloads a word without recording a write (device-side update).
func (s *SimPort) Set(addr uint64, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words[addr] = v
}

// Peek returns the current value of a word.
func (s *SimPort) Peek(addr uint64) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.words[addr]
}

// Writes returns a copy of all recorded writes in issue order.
func (s *SimPort) Writes() []WordWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WordWrite, len(s.writes))
	copy(out, s.writes)
	return out
}

// WritesTo returns recorded writes hitting addr, in order.
func (s *SimPort) WritesTo(addr uint64) []WordWrite {
	var out []WordWrite
	for _, w := range s.Writes() {
		if w.Addr == addr {
			out = append(out, w)
		}
	}
	return out
}

// ResetWrites clears the write log.
func (s *SimPort) ResetWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
}

// Addrs returns every address holding a value, sorted.
func (s *SimPort) Addrs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, 0, len(s.words))
	for a := range s.words {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FailReads installs a read fault hook; nil clears it.
func (s *SimPort) FailReads(fn func(addr uint64) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readFault = fn
}

// FailWrites installs a write fault hook; nil clears it.
func (s *SimPort) FailWrites(fn func(addr uint64) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeFault = fn
}

// OnWrite installs a hook called after every successful write.
func (s *SimPort) OnWrite(fn func(addr uint64, v uint32)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWrite = fn
}
