// internal/link/gate.go
package link

import (
	"fmt"

	"github.com/tamzrod/clink-feb/internal/regport"
)

// Gate reports whether downstream register access on a lane is safe.
type Gate interface {
	LinkReady(lane int) (bool, error)
}

// Layout locates the remote-link-ready bit inside a PGP monitor window.
type Layout struct {
	Offset uint32
	Bit    uint
}

// Default monitor layouts of the PCIe-side PGP cores.
var (
	LayoutPgp2b = Layout{Offset: 0x20, Bit: 3}
	LayoutPgp3  = Layout{Offset: 0x10, Bit: 2}
)

// LayoutFor picks the monitor layout for the PGP protocol generation.
func LayoutFor(version3 bool) Layout {
	if version3 {
		return LayoutPgp3
	}
	return LayoutPgp2b
}

func (l Layout) field() regport.Field {
	return regport.Field{Name: "RxRemLinkReady", Offset: l.Offset, BitOffset: l.Bit, BitSize: 1, Mode: regport.RO}
}

// PgpMonitor reads RxRemLinkReady from one PGP monitor window per lane.
type PgpMonitor struct {
	layout Layout
	lanes  map[int]*regport.Device
}

// NewPgpMonitor creates a gate over the given per-lane monitor windows.
func NewPgpMonitor(layout Layout, lanes map[int]*regport.Device) *PgpMonitor {
	return &PgpMonitor{layout: layout, lanes: lanes}
}

// Device returns the monitor window of lane, or nil.
func (m *PgpMonitor) Device(lane int) *regport.Device { return m.lanes[lane] }

// LinkReady reads the remote link ready flag of lane.
func (m *PgpMonitor) LinkReady(lane int) (bool, error) {
	dev, ok := m.lanes[lane]
	if !ok {
		return false, fmt.Errorf("link: no PGP monitor for lane %d", lane)
	}
	v, err := dev.ReadField(m.layout.field())
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// Static is a fixed gate (simulation, bench setups without a monitor).
type Static map[int]bool

func (s Static) LinkReady(lane int) (bool, error) {
	return s[lane], nil
}
