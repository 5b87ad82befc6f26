// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// MaxLanes is the number of PGP lanes on the host card.
const MaxLanes = 4

// MaxSlotsPerLane mirrors status.SlotsPerDevice; config must not import status.
const MaxSlotsPerLane = 24

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	switch cfg.Device.Backend {
	case "", BackendFile, BackendSim:
	case BackendMmap:
		if cfg.Device.WindowSize <= 0 {
			return fmt.Errorf("device: window_size must be > 0 for backend %q", BackendMmap)
		}
		if cfg.Device.MapOffset < 0 {
			return fmt.Errorf("device: map_offset must be >= 0")
		}
	default:
		return fmt.Errorf("device: unknown backend %q", cfg.Device.Backend)
	}

	// ------------------------------------------------------------
	// LANES
	// ------------------------------------------------------------

	if len(cfg.Lanes) == 0 {
		return fmt.Errorf("lanes: at least one lane required")
	}

	seen := make(map[int]bool)
	for _, l := range cfg.Lanes {
		if l.Index < 0 || l.Index >= MaxLanes {
			return fmt.Errorf("lane %d: index out of range 0..%d", l.Index, MaxLanes-1)
		}
		if seen[l.Index] {
			return fmt.Errorf("lane %d: defined more than once", l.Index)
		}
		seen[l.Index] = true

		if l.Base != nil && *l.Base%4 != 0 {
			return fmt.Errorf("lane %d: base 0x%x is not word aligned", l.Index, *l.Base)
		}
		if l.LinkBase != nil && *l.LinkBase%4 != 0 {
			return fmt.Errorf("lane %d: link_base 0x%x is not word aligned", l.Index, *l.LinkBase)
		}

		// device_name sanity (ASCII only)
		for i := 0; i < len(l.DeviceName); i++ {
			if l.DeviceName[i] > 0x7F {
				return fmt.Errorf("lane %d: device_name must contain ASCII characters only", l.Index)
			}
		}
	}

	// ------------------------------------------------------------
	// SEM / UPDATE
	// ------------------------------------------------------------

	if cfg.SEM.PollIntervalMs < 0 {
		return fmt.Errorf("sem: poll_interval_ms must be >= 0")
	}
	switch strings.ToLower(cfg.SEM.CounterOverflow) {
	case "", "wrap", "saturate":
	default:
		return fmt.Errorf("sem: counter_overflow must be wrap or saturate, got %q", cfg.SEM.CounterOverflow)
	}

	if cfg.Update.SettleMs < 0 {
		return fmt.Errorf("update: settle_ms must be >= 0")
	}
	if cfg.Update.ProgramTimeoutMs < 0 {
		return fmt.Errorf("update: program_timeout_ms must be >= 0")
	}
	if n := cfg.Update.SectorSize; n != 0 && (n < 256 || n&(n-1) != 0) {
		return fmt.Errorf("update: sector_size %d must be a power of two >= 256", n)
	}

	// ------------------------------------------------------------
	// STATUS BLOCK VALIDATION (OPT-IN)
	// ------------------------------------------------------------

	// key = status_slot
	slotOwner := make(map[uint16]int)

	for _, l := range cfg.Lanes {
		// status is opt-in
		if l.StatusSlot == nil {
			continue
		}

		// status requires a publish endpoint
		if cfg.Publish == nil || cfg.Publish.Endpoint == "" {
			return fmt.Errorf("lane %d: status_slot is set but publish.endpoint is not", l.Index)
		}

		slot := *l.StatusSlot
		if int(slot)*MaxSlotsPerLane+MaxSlotsPerLane > 1<<16 {
			return fmt.Errorf("lane %d: status_slot %d exceeds the register address space", l.Index, slot)
		}
		if prev, exists := slotOwner[slot]; exists {
			return fmt.Errorf(
				"status_slot collision: endpoint=%s unit_id=%d slot=%d used by lanes %d and %d",
				cfg.Publish.Endpoint,
				cfg.Publish.UnitID,
				slot,
				prev,
				l.Index,
			)
		}
		slotOwner[slot] = l.Index
	}

	if cfg.Publish != nil && cfg.Publish.TimeoutMs < 0 {
		return fmt.Errorf("publish: timeout_ms must be >= 0")
	}

	return nil
}
