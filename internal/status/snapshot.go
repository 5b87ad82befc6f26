// internal/status/snapshot.go
package status

import "github.com/tamzrod/clink-feb/internal/sem"

// Snapshot represents exactly what the publisher is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health     uint16
	SemStatus  uint16
	Flags      uint16
	Heartbeat  uint32
	Counters   [SlotCounters]uint16
	PollErrors uint16
}

// FromSEM builds a snapshot from one successful SEM read.
func FromSEM(st sem.Status, c sem.Counters, heartbeat uint32) Snapshot {
	s := Snapshot{
		Health:    HealthFor(st),
		SemStatus: uint16(st.Code),
		Heartbeat: heartbeat,
		Counters:  c,
	}
	if st.Essential {
		s.Flags |= FlagEssential
	}
	if st.Uncorrectable {
		s.Flags |= FlagUncorrectable
	}
	if !st.Code.Known() {
		s.Flags |= FlagUnknownCode
	}
	return s
}

// HealthFor maps a SEM status onto a health code.
func HealthFor(st sem.Status) uint16 {
	switch {
	case st.Uncorrectable:
		return HealthFault
	case st.Code == sem.StatusObservation:
		return HealthOK
	case st.Code.Known():
		return HealthStale
	default:
		return HealthUnknown
	}
}
