// internal/board/board.go
package board

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/tamzrod/clink-feb/internal/axiversion"
	"github.com/tamzrod/clink-feb/internal/config"
	"github.com/tamzrod/clink-feb/internal/link"
	"github.com/tamzrod/clink-feb/internal/prom"
	"github.com/tamzrod/clink-feb/internal/regport"
	"github.com/tamzrod/clink-feb/internal/sem"
	"github.com/tamzrod/clink-feb/internal/xadc"
)

// FEB register map, relative to the lane base.
const (
	OffsetAxiVersion = 0x0000
	OffsetProm       = 0x1000
	OffsetXadc       = 0x3000
	OffsetSem        = 0x8000
)

// Default host window layout when a lane omits base or link_base.
const (
	laneStride = 0x0100_0000
	linkBase   = 0x0080_0000
	linkStride = 0x0001_0000
)

// DefaultLaneBase is the FEB register window of lane.
func DefaultLaneBase(lane int) uint64 { return uint64(lane+1) * laneStride }

// DefaultLinkBase is the host PGP monitor window of lane.
func DefaultLinkBase(lane int) uint64 { return linkBase + uint64(lane)*linkStride }

// FEB is one frame-grabber board reached over one PGP lane.
type FEB struct {
	Lane int
	Name string
	Base uint64

	Version *axiversion.Device
	Xadc    *xadc.Monitor
	SEM     *sem.Controller

	prom *regport.Device
}

// Flash returns a PROM programmer bound to this FEB.
func (f *FEB) Flash(opts ...prom.Option) *prom.Flash {
	return prom.NewFlash(f.prom, opts...)
}

// Board is the explicit composition of every configured lane on one port.
type Board struct {
	Port  regport.Port
	Gate  link.Gate
	lanes map[int]*FEB

	closer io.Closer
}

// New composes one FEB per lane config. closer may be nil.
func New(port regport.Port, closer io.Closer, lanes []config.LaneConfig, version3 bool, log *zap.Logger) (*Board, error) {
	if port == nil {
		return nil, errors.New("board: port is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	b := &Board{
		Port:   port,
		lanes:  make(map[int]*FEB, len(lanes)),
		closer: closer,
	}
	monitors := make(map[int]*regport.Device, len(lanes))

	for _, lc := range lanes {
		if _, dup := b.lanes[lc.Index]; dup {
			return nil, fmt.Errorf("board: lane %d defined twice", lc.Index)
		}

		base := DefaultLaneBase(lc.Index)
		if lc.Base != nil {
			base = *lc.Base
		}
		lb := DefaultLinkBase(lc.Index)
		if lc.LinkBase != nil {
			lb = *lc.LinkBase
		}

		name := lc.DeviceName
		if name == "" {
			name = fmt.Sprintf("ClinkFeb[%d]", lc.Index)
		}

		dev := func(block string, off uint64) *regport.Device {
			return regport.NewDevice(fmt.Sprintf("%s.%s", name, block), port, base+off)
		}

		b.lanes[lc.Index] = &FEB{
			Lane:    lc.Index,
			Name:    name,
			Base:    base,
			Version: axiversion.New(dev("AxiVersion", OffsetAxiVersion)),
			Xadc:    xadc.New(dev("Xadc", OffsetXadc)),
			SEM: sem.New(dev("Sem", OffsetSem),
				sem.WithLogger(log.With(zap.Int("lane", lc.Index)))),
			prom: dev("CypressS25Fl", OffsetProm),
		}
		monitors[lc.Index] = regport.NewDevice(fmt.Sprintf("PgpMon[%d]", lc.Index), port, lb)
	}

	b.Gate = link.NewPgpMonitor(link.LayoutFor(version3), monitors)
	return b, nil
}

// Lane returns the FEB on lane.
func (b *Board) Lane(lane int) (*FEB, error) {
	f, ok := b.lanes[lane]
	if !ok {
		return nil, fmt.Errorf("board: lane %d not configured", lane)
	}
	return f, nil
}

// Lanes returns every FEB ordered by lane index.
func (b *Board) Lanes() []*FEB {
	out := make([]*FEB, 0, len(b.lanes))
	for _, f := range b.lanes {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lane < out[j].Lane })
	return out
}

// Close releases the port backend.
func (b *Board) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
