// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/clink-feb/internal/status"
)

// StatusWriter is the delivery-only contract for lane status.
// It receives a snapshot and writes it verbatim.
// No logic, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// deviceStatusWriter is the concrete Modbus holding-register implementation.
type deviceStatusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     []uint16 // encoded live slots last confirmed on the wire
	nameRegs []uint16
}

// NewDeviceStatusWriter builds a status writer if status is enabled for the lane.
// If plan.Status is nil, status is disabled.
func NewDeviceStatusWriter(plan Plan, cli endpointClient) (*deviceStatusWriter, bool) {
	if plan.Status == nil {
		return nil, false
	}

	sp := plan.Status
	return &deviceStatusWriter{
		plan:     sp,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     status.Encode(status.Snapshot{Health: status.HealthUnknown}),
		nameRegs: status.EncodeDeviceName(sp.DeviceName),
	}, true
}

// WriteStatus delivers a lane status snapshot into status memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}
	if sw.plan.UnitID > 255 {
		return fmt.Errorf("status writer: unit id %d out of range", sw.plan.UnitID)
	}

	baseAddr := sw.baseAddr()
	unitID := uint8(sw.plan.UnitID)
	regs := status.Encode(s)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		copy(regs[status.SlotDeviceNameStart:], sw.nameRegs)

		if err := sw.cli.WriteRegisters(unitID, baseAddr, regs); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = regs
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: one write per contiguous run of changed live slots
	// ------------------------------------------------------------
	var errs []string

	for _, r := range changedRuns(sw.last, regs, status.SlotLiveEnd) {
		if err := sw.cli.WriteRegisters(
			unitID,
			baseAddr+uint16(r.start),
			regs[r.start:r.end+1],
		); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", r.start, r.end, err))
			continue
		}
		copy(sw.last[r.start:r.end+1], regs[r.start:r.end+1])
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each lane owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}

type run struct{ start, end int }

// changedRuns returns inclusive index runs in [0, limit] where a and b differ.
func changedRuns(a, b []uint16, limit int) []run {
	var out []run
	for i := 0; i <= limit; i++ {
		if a[i] == b[i] {
			continue
		}
		if n := len(out); n > 0 && out[n-1].end == i-1 {
			out[n-1].end = i
			continue
		}
		out = append(out, run{start: i, end: i})
	}
	return out
}
