// internal/prom/spi.go
package prom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/clink-feb/internal/regport"
)

// PageSize is the SPI flash page program size and the engine data buffer size.
const PageSize = 256

// SPI engine registers (relative to the PROM base).
var (
	fieldAddr32  = regport.Field{Name: "Addr32BitMode", Offset: 0x04, BitSize: 1, Mode: regport.RW}
	fieldAddr    = regport.Field{Name: "Addr", Offset: 0x08, BitSize: 32, Mode: regport.RW}
	fieldCmd     = regport.Field{Name: "Cmd", Offset: 0x0C, BitSize: 32, Mode: regport.WO}
	fieldCmdBusy = regport.Field{Name: "CmdBusy", Offset: 0x0C, BitOffset: 31, BitSize: 1, Mode: regport.RO}
)

const dataBase = 0x200

func dataField(i int) regport.Field {
	return regport.Field{Name: "Data", Offset: dataBase + uint32(4*i), BitSize: 32, Mode: regport.RW}
}

// Cmd word layout: [7:0] opcode, [8] address phase, [9] read into data buffer, [24:16] byte count.
const (
	cmdHasAddr  = 1 << 8
	cmdRead     = 1 << 9
	cmdLenShift = 16
)

// S25FL 4-byte-address opcodes.
const (
	opWriteEnable = 0x06
	opReadStatus  = 0x05
	opSectorErase = 0xDC
	opPageProgram = 0x12
	opRead        = 0x13
	statusWIP     = 1 << 0
)

var errBusyTimeout = errors.New("prom: timeout waiting for flash")

// spi issues transactions through the register-mapped SPI engine.
type spi struct {
	dev  *regport.Device
	poll time.Duration
	max  time.Duration
}

func cmdWord(op byte, hasAddr, read bool, n int) uint64 {
	w := uint64(op) | uint64(n)<<cmdLenShift
	if hasAddr {
		w |= cmdHasAddr
	}
	if read {
		w |= cmdRead
	}
	return w
}

func (s *spi) enable4ByteMode() error {
	return s.dev.WriteField(fieldAddr32, 1)
}

// transact runs one SPI command and waits for the engine to go idle.
func (s *spi) transact(ctx context.Context, op byte, addr uint32, hasAddr, read bool, n int) error {
	if hasAddr {
		if err := s.dev.WriteField(fieldAddr, uint64(addr)); err != nil {
			return err
		}
	}
	if err := s.dev.WriteField(fieldCmd, cmdWord(op, hasAddr, read, n)); err != nil {
		return err
	}
	return s.waitFor(ctx, func() (bool, error) {
		busy, err := s.dev.ReadField(fieldCmdBusy)
		return busy == 0, err
	})
}

func (s *spi) waitFor(ctx context.Context, done func() (bool, error)) error {
	deadline := time.Now().Add(s.max)
	for {
		ok, err := done()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return errBusyTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.poll):
		}
	}
}

func (s *spi) status(ctx context.Context) (byte, error) {
	if err := s.transact(ctx, opReadStatus, 0, false, true, 1); err != nil {
		return 0, err
	}
	w, err := s.dev.ReadField(dataField(0))
	return byte(w), err
}

func (s *spi) waitReady(ctx context.Context) error {
	return s.waitFor(ctx, func() (bool, error) {
		st, err := s.status(ctx)
		return st&statusWIP == 0, err
	})
}

func (s *spi) writeEnable(ctx context.Context) error {
	return s.transact(ctx, opWriteEnable, 0, false, false, 0)
}

func (s *spi) eraseSector(ctx context.Context, addr uint32) error {
	if err := s.writeEnable(ctx); err != nil {
		return err
	}
	if err := s.transact(ctx, opSectorErase, addr, true, false, 0); err != nil {
		return err
	}
	return s.waitReady(ctx)
}

func (s *spi) programPage(ctx context.Context, addr uint32, data []byte) error {
	if len(data) == 0 || len(data) > PageSize {
		return fmt.Errorf("prom: page program of %d bytes", len(data))
	}
	for i, w := range packWords(data) {
		if err := s.dev.WriteField(dataField(i), uint64(w)); err != nil {
			return err
		}
	}
	if err := s.writeEnable(ctx); err != nil {
		return err
	}
	if err := s.transact(ctx, opPageProgram, addr, true, false, len(data)); err != nil {
		return err
	}
	return s.waitReady(ctx)
}

func (s *spi) readPage(ctx context.Context, addr uint32, n int) ([]byte, error) {
	if err := s.transact(ctx, opRead, addr, true, true, n); err != nil {
		return nil, err
	}
	words := make([]uint32, (n+3)/4)
	for i := range words {
		w, err := s.dev.ReadField(dataField(i))
		if err != nil {
			return nil, err
		}
		words[i] = uint32(w)
	}
	return unpackWords(words, n), nil
}

// packWords packs bytes little-endian into buffer words.
func packWords(b []byte) []uint32 {
	out := make([]uint32, (len(b)+3)/4)
	for i, c := range b {
		out[i/4] |= uint32(c) << (8 * uint(i%4))
	}
	return out
}

func unpackWords(words []uint32, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(words[i/4] >> (8 * uint(i%4)))
	}
	return out
}
