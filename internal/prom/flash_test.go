// internal/prom/flash_test.go
package prom

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tamzrod/clink-feb/internal/regport"
)

const promBase = 0x1000

type simFlash struct {
	*SimFlash
	port *regport.SimPort
}

func newSimFlash() *simFlash {
	port := regport.NewSimPort()
	return &simFlash{SimFlash: AttachSimFlash(port, promBase), port: port}
}

func (f *simFlash) device() *regport.Device {
	return regport.NewDevice("prom", f.port, promBase)
}

func testImage() *Image {
	a := make([]byte, 300)
	for i := range a {
		a[i] = byte(i)
	}
	return &Image{Segments: []Segment{
		{Addr: 0x80, Data: a},
		{Addr: 0x20000, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
	}}
}

func fastFlash(dev *regport.Device, opts ...Option) *Flash {
	opts = append([]Option{WithPollInterval(0), WithBusyTimeout(time.Second)}, opts...)
	return NewFlash(dev, opts...)
}

// ------------------------------------------------------------
// tests
// ------------------------------------------------------------

func TestFlash_ProgramWritesAndVerifies(t *testing.T) {
	sim := newSimFlash()
	sim.SetBusyPolls(2)

	var phases []string
	fl := fastFlash(sim.device(), WithProgressCallback(func(p Progress) {
		if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
			phases = append(phases, p.Phase)
		}
	}))

	ok, err := fl.Program(context.Background(), testImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected verify to pass, mismatch %+v", fl.LastMismatch())
	}

	for i := 0; i < 300; i++ {
		if got := sim.ByteAt(0x80 + uint32(i)); got != byte(i) {
			t.Fatalf("byte 0x%X: expected 0x%02X, got 0x%02X", 0x80+i, byte(i), got)
		}
	}
	if sim.ByteAt(0x20003) != 0xEF {
		t.Fatalf("second segment not programmed")
	}

	if erased := sim.Erased(); len(erased) != 2 || erased[0] != 0 || erased[1] != 0x20000 {
		t.Fatalf("unexpected erased sectors: %x", erased)
	}
	// 0x80..0x1AB spans two pages (0x80..0xFF, 0x100..0x1AB) plus one page for the tail segment.
	if n := sim.OpCount(opPageProgram); n != 3 {
		t.Fatalf("expected 3 page programs, got %d", n)
	}
	if sim.port.Peek(promBase+0x04) != 1 {
		t.Fatalf("expected 4-byte address mode enabled")
	}

	want := []string{PhaseErasing, PhaseProgramming, PhaseVerifying, PhaseComplete}
	if strings.Join(phases, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected phases %v", phases)
	}
}

func TestFlash_VerifyMismatchIsNotAnError(t *testing.T) {
	sim := newSimFlash()
	sim.StickBits(0x85, 0x01)

	fl := fastFlash(sim.device())
	ok, err := fl.Program(context.Background(), testImage())
	if err != nil {
		t.Fatalf("expected nil error on verify mismatch, got %v", err)
	}
	if ok {
		t.Fatalf("expected verify failure")
	}
	m := fl.LastMismatch()
	if m == nil || m.Addr != 0x85 || m.Expected != 0x05 || m.Actual != 0x04 {
		t.Fatalf("unexpected mismatch %+v", m)
	}
}

func TestFlash_TransportErrorAborts(t *testing.T) {
	sim := newSimFlash()
	boom := errors.New("bus fault")
	sim.port.FailWrites(func(addr uint64) error {
		if addr == promBase+0x08 {
			return boom
		}
		return nil
	})

	ok, err := fastFlash(sim.device()).Program(context.Background(), testImage())
	if ok || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got ok=%v err=%v", ok, err)
	}
	if n := sim.OpCount(opPageProgram); n != 0 {
		t.Fatalf("expected no page programs, got %d", n)
	}
}

func TestFlash_BusyTimeout(t *testing.T) {
	sim := newSimFlash()
	sim.SetBusyPolls(1 << 30)

	fl := NewFlash(sim.device(), WithPollInterval(time.Millisecond), WithBusyTimeout(20*time.Millisecond))
	ok, err := fl.Program(context.Background(), testImage())
	if ok || !errors.Is(err, errBusyTimeout) {
		t.Fatalf("expected busy timeout, got ok=%v err=%v", ok, err)
	}
}

func TestFlash_CancelledContext(t *testing.T) {
	sim := newSimFlash()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := fastFlash(sim.device()).Program(ctx, testImage())
	if ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got ok=%v err=%v", ok, err)
	}
	if len(sim.Erased()) != 0 {
		t.Fatalf("expected no erase after cancel")
	}
}

func TestFlash_LoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feb.mcs")
	body := strings.Join([]string{
		rec(recExtLinearAddr, 0, 0x00, 0x00),
		rec(recData, 0x0010, 0x11, 0x22, 0x33),
		rec(recEOF, 0),
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	sim := newSimFlash()
	ok, err := fastFlash(sim.device()).Load(context.Background(), path)
	if err != nil || !ok {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}
	if sim.ByteAt(0x12) != 0x33 {
		t.Fatalf("expected 0x33 at 0x12, got 0x%02X", sim.ByteAt(0x12))
	}
}

func TestFlash_LoadMissingFile(t *testing.T) {
	sim := newSimFlash()
	ok, err := fastFlash(sim.device()).Load(context.Background(), filepath.Join(t.TempDir(), "none.mcs"))
	if ok || err == nil {
		t.Fatalf("expected open error, got ok=%v err=%v", ok, err)
	}
}

func TestSplitPages(t *testing.T) {
	img := &Image{Segments: []Segment{{Addr: 0xF0, Data: make([]byte, 0x220)}}}
	pages := splitPages(img)
	if len(pages) != 4 {
		t.Fatalf("expected 4 pages, got %d", len(pages))
	}
	if pages[0].Addr != 0xF0 || len(pages[0].Data) != 0x10 {
		t.Fatalf("unexpected first page %x/%d", pages[0].Addr, len(pages[0].Data))
	}
	if pages[3].Addr != 0x300 || len(pages[3].Data) != 0x10 {
		t.Fatalf("unexpected last page %x/%d", pages[3].Addr, len(pages[3].Data))
	}
}

func TestPackWords(t *testing.T) {
	w := packWords([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	if len(w) != 2 || w[0] != 0x04030201 || w[1] != 0x05 {
		t.Fatalf("unexpected words %x", w)
	}
	if got := unpackWords(w, 5); string(got) != "\x01\x02\x03\x04\x05" {
		t.Fatalf("unexpected bytes %x", got)
	}
}
