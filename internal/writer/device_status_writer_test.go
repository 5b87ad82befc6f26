// internal/writer/device_status_writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/tamzrod/clink-feb/internal/status"
)

type regWrite struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

type fakeEndpointClient struct {
	writes  []regWrite
	failAll bool
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.failAll {
		return errors.New("endpoint down")
	}
	cp := append([]uint16(nil), regs...)
	f.writes = append(f.writes, regWrite{unitID: unitID, addr: addr, regs: cp})
	return nil
}

func (f *fakeEndpointClient) last() regWrite { return f.writes[len(f.writes)-1] }

func newTestWriter(t *testing.T, slot uint16) (*deviceStatusWriter, *fakeEndpointClient) {
	t.Helper()
	cli := &fakeEndpointClient{}
	plan := Plan{
		Lane: 1,
		Status: &StatusPlan{
			Endpoint:   "status-endpoint",
			UnitID:     3,
			BaseSlot:   slot,
			DeviceName: "FEB-01",
		},
	}
	sw, enabled := NewDeviceStatusWriter(plan, cli)
	if !enabled {
		t.Fatalf("status writer should be enabled")
	}
	return sw, cli
}

func TestDeviceNameWrittenOnFullAssertOnly(t *testing.T) {
	sw, cli := newTestWriter(t, 2)

	// ---- first write: FULL ASSERT ----
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK, SemStatus: 2}); err != nil {
		t.Fatalf("initial full assert failed: %v", err)
	}

	w := cli.last()
	if len(w.regs) != status.SlotsPerDevice {
		t.Fatalf("expected full block write (%d regs), got %d", status.SlotsPerDevice, len(w.regs))
	}
	if w.addr != 2*status.SlotsPerDevice || w.unitID != 3 {
		t.Fatalf("unexpected target unit=%d addr=%d", w.unitID, w.addr)
	}

	// Verify device name encoding EXACTLY
	expectedNameRegs := status.EncodeDeviceName("FEB-01")
	for i := 0; i < status.SlotDeviceNameSlots; i++ {
		slot := status.SlotDeviceNameStart + i
		if w.regs[slot] != expectedNameRegs[i] {
			t.Fatalf("device name slot %d mismatch: got=%d want=%d", slot, w.regs[slot], expectedNameRegs[i])
		}
	}

	// ---- second write: INCREMENTAL ONLY ----
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthStale, SemStatus: 32}); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	w = cli.last()
	if len(w.regs) == status.SlotsPerDevice {
		t.Fatalf("device name should not be rewritten on incremental update")
	}
	// health and sem status are adjacent: one run
	if w.addr != 2*status.SlotsPerDevice || len(w.regs) != 2 || w.regs[1] != 32 {
		t.Fatalf("unexpected incremental write %+v", w)
	}
}

func TestIncrementalWritesOnlyChangedRuns(t *testing.T) {
	sw, cli := newTestWriter(t, 0)

	base := status.Snapshot{Health: status.HealthOK, SemStatus: 2, Heartbeat: 100}
	if err := sw.WriteStatus(base); err != nil {
		t.Fatal(err)
	}
	cli.writes = nil

	next := base
	next.Heartbeat = 101
	next.Counters[status.SlotCounters-1] = 1
	if err := sw.WriteStatus(next); err != nil {
		t.Fatal(err)
	}

	if len(cli.writes) != 2 {
		t.Fatalf("expected two runs, got %+v", cli.writes)
	}
	if cli.writes[0].addr != status.SlotHeartbeatLo || cli.writes[0].regs[0] != 101 {
		t.Fatalf("unexpected heartbeat write %+v", cli.writes[0])
	}
	if cli.writes[1].addr != status.SlotCountersStart+status.SlotCounters-1 {
		t.Fatalf("unexpected counter write %+v", cli.writes[1])
	}

	// no change: no writes
	cli.writes = nil
	if err := sw.WriteStatus(next); err != nil {
		t.Fatal(err)
	}
	if len(cli.writes) != 0 {
		t.Fatalf("expected no writes for unchanged snapshot, got %d", len(cli.writes))
	}
}

func TestFailureForcesFullReassert(t *testing.T) {
	sw, cli := newTestWriter(t, 0)

	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK}); err != nil {
		t.Fatal(err)
	}

	cli.failAll = true
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError, PollErrors: 1}); err == nil {
		t.Fatalf("expected write error")
	}

	cli.failAll = false
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError, PollErrors: 2}); err != nil {
		t.Fatal(err)
	}
	if len(cli.last().regs) != status.SlotsPerDevice {
		t.Fatalf("expected full re-assert after failure")
	}
}

func TestDisabledWhenNoSlot(t *testing.T) {
	if _, enabled := NewDeviceStatusWriter(Plan{Lane: 0}, &fakeEndpointClient{}); enabled {
		t.Fatalf("expected disabled status writer")
	}
}

func TestChangedRuns(t *testing.T) {
	a := []uint16{0, 0, 0, 0, 0, 0}
	b := []uint16{1, 1, 0, 1, 0, 1}
	runs := changedRuns(a, b, 4)
	if len(runs) != 2 || runs[0] != (run{0, 1}) || runs[1] != (run{3, 3}) {
		t.Fatalf("unexpected runs %+v", runs)
	}
}
