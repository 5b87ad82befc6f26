// internal/prom/flash.go
package prom

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/clink-feb/internal/regport"
)

// Programmer loads an MCS image into the configuration PROM.
//
// Load returns (true, nil) when the image was erased, written and read back
// intact. A read-back mismatch returns (false, nil). Any transport, parse,
// timeout or cancellation failure returns (false, err).
type Programmer interface {
	Load(ctx context.Context, path string) (bool, error)
}

// VerifyMismatch describes the first byte that read back differently.
type VerifyMismatch struct {
	Addr     uint32
	Expected byte
	Actual   byte
}

// Flash programs an S25FL-class SPI flash through the PROM register block.
type Flash struct {
	spi    spi
	config Config

	lastMismatch *VerifyMismatch
}

// NewFlash binds a programmer to the PROM register block of one FEB.
func NewFlash(dev *regport.Device, opts ...Option) *Flash {
	if dev == nil {
		panic("prom: device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Flash{
		spi:    spi{dev: dev, poll: cfg.PollInterval, max: cfg.BusyTimeout},
		config: cfg,
	}
}

// LastMismatch returns the mismatch recorded by the most recent failed verify.
func (f *Flash) LastMismatch() *VerifyMismatch { return f.lastMismatch }

// Load parses the MCS file at path and programs it.
func (f *Flash) Load(ctx context.Context, path string) (bool, error) {
	img, err := ParseMCSFile(path)
	if err != nil {
		return false, err
	}
	return f.Program(ctx, img)
}

// Program erases every sector the image touches, writes the image page by
// page and reads it back.
func (f *Flash) Program(ctx context.Context, img *Image) (bool, error) {
	if img == nil || len(img.Segments) == 0 {
		return false, fmt.Errorf("prom: empty image")
	}
	f.lastMismatch = nil
	start := time.Now()
	log := f.config.Logger

	if err := f.spi.enable4ByteMode(); err != nil {
		return false, fmt.Errorf("prom: enable 4-byte addressing: %w", err)
	}

	// ---------- erase ----------

	sectors := f.sectors(img)
	log.Info("erasing prom", zap.Int("sectors", len(sectors)), zap.Int("bytes", img.Size()))
	for i, addr := range sectors {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("prom: cancelled: %w", err)
		}
		if err := f.spi.eraseSector(ctx, addr); err != nil {
			return false, fmt.Errorf("prom: erase sector 0x%08X: %w", addr, err)
		}
		f.report(PhaseErasing, i+1, len(sectors), 0, 30, start)
	}

	// ---------- program ----------

	pages := splitPages(img)
	log.Info("programming prom", zap.Int("pages", len(pages)))
	for i, pg := range pages {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("prom: cancelled: %w", err)
		}
		if err := f.spi.programPage(ctx, pg.Addr, pg.Data); err != nil {
			return false, fmt.Errorf("prom: program page 0x%08X: %w", pg.Addr, err)
		}
		f.report(PhaseProgramming, i+1, len(pages), 30, 60, start)
	}

	// ---------- verify ----------

	for i, pg := range pages {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("prom: cancelled: %w", err)
		}
		got, err := f.spi.readPage(ctx, pg.Addr, len(pg.Data))
		if err != nil {
			return false, fmt.Errorf("prom: read page 0x%08X: %w", pg.Addr, err)
		}
		if !bytes.Equal(got, pg.Data) {
			m := firstMismatch(pg, got)
			f.lastMismatch = &m
			log.Error("prom verify mismatch",
				zap.String("addr", fmt.Sprintf("0x%08X", m.Addr)),
				zap.String("expected", fmt.Sprintf("0x%02X", m.Expected)),
				zap.String("actual", fmt.Sprintf("0x%02X", m.Actual)),
			)
			return false, nil
		}
		f.report(PhaseVerifying, i+1, len(pages), 90, 10, start)
	}

	f.report(PhaseComplete, len(pages), len(pages), 100, 0, start)
	log.Info("prom programmed", zap.Duration("elapsed", time.Since(start)))
	return true, nil
}

// sectors returns the sorted, de-duplicated sector base addresses the image touches.
func (f *Flash) sectors(img *Image) []uint32 {
	size := f.config.SectorSize
	var out []uint32
	for _, s := range img.Segments {
		first := s.Addr &^ (size - 1)
		last := (s.End() - 1) &^ (size - 1)
		for a := first; ; a += size {
			if len(out) == 0 || out[len(out)-1] < a {
				out = append(out, a)
			}
			if a == last {
				break
			}
		}
	}
	return out
}

// splitPages cuts segments at page boundaries so no program crosses a page.
func splitPages(img *Image) []Segment {
	var out []Segment
	for _, s := range img.Segments {
		addr, data := s.Addr, s.Data
		for len(data) > 0 {
			n := PageSize - int(addr%PageSize)
			if n > len(data) {
				n = len(data)
			}
			out = append(out, Segment{Addr: addr, Data: data[:n]})
			addr += uint32(n)
			data = data[n:]
		}
	}
	return out
}

func firstMismatch(pg Segment, got []byte) VerifyMismatch {
	for i := range pg.Data {
		if got[i] != pg.Data[i] {
			return VerifyMismatch{Addr: pg.Addr + uint32(i), Expected: pg.Data[i], Actual: got[i]}
		}
	}
	return VerifyMismatch{Addr: pg.Addr}
}

// report maps phase progress onto [base, base+span] percent.
func (f *Flash) report(phase string, done, total int, base, span float64, start time.Time) {
	if f.config.ProgressCallback == nil {
		return
	}
	pct := base
	if total > 0 {
		pct += span * float64(done) / float64(total)
	}
	f.config.ProgressCallback(Progress{
		Phase:      phase,
		Done:       done,
		Total:      total,
		Percentage: pct,
		Elapsed:    time.Since(start),
	})
}
