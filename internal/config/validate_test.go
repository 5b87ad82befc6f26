// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

func u16(v uint16) *uint16 { return &v }
func u64(v uint64) *uint64 { return &v }

// helper to build a valid config quickly
func baseConfig(lanes ...LaneConfig) *Config {
	return &Config{
		Device:  DeviceConfig{Backend: BackendSim},
		Lanes:   lanes,
		Publish: &PublishConfig{Endpoint: "127.0.0.1:502", UnitID: 1},
	}
}

func lane(idx int, slot *uint16) LaneConfig {
	return LaneConfig{Index: idx, DeviceName: "FEB", StatusSlot: slot}
}

// ---- tests ----

func TestValidate_DistinctSlotsAllowed(t *testing.T) {
	cfg := baseConfig(lane(0, u16(0)), lane(1, u16(1)), lane(2, nil))

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_SlotCollisionDetected(t *testing.T) {
	cfg := baseConfig(lane(0, u16(3)), lane(1, u16(3)))

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "collision") {
		t.Fatalf("expected collision error, got %v", err)
	}
}

func TestValidate_SlotRequiresPublish(t *testing.T) {
	cfg := baseConfig(lane(0, u16(0)))
	cfg.Publish = nil

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidate_SlotOutOfAddressSpace(t *testing.T) {
	cfg := baseConfig(lane(0, u16(5000)))

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidate_LaneErrors(t *testing.T) {
	cases := map[string]*Config{
		"no lanes":       baseConfig(),
		"index too high": baseConfig(lane(4, nil)),
		"negative index": baseConfig(lane(-1, nil)),
		"duplicate lane": baseConfig(lane(1, nil), lane(1, nil)),
		"unaligned base": baseConfig(LaneConfig{Index: 0, Base: u64(0x1002)}),
		"unaligned link": baseConfig(LaneConfig{Index: 0, LinkBase: u64(0x3)}),
		"non-ascii name": baseConfig(LaneConfig{Index: 0, DeviceName: "FEB\xc3\xa9"}),
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Validate(cfg); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestValidate_DeviceAndTiming(t *testing.T) {
	mk := func(mut func(*Config)) *Config {
		c := baseConfig(lane(0, nil))
		mut(c)
		return c
	}

	bad := map[string]*Config{
		"unknown backend":   mk(func(c *Config) { c.Device.Backend = "pcie" }),
		"mmap no window":    mk(func(c *Config) { c.Device.Backend = BackendMmap }),
		"overflow policy":   mk(func(c *Config) { c.SEM.CounterOverflow = "clamp" }),
		"negative settle":   mk(func(c *Config) { c.Update.SettleMs = -1 }),
		"odd sector size":   mk(func(c *Config) { c.Update.SectorSize = 3000 }),
		"tiny sector size":  mk(func(c *Config) { c.Update.SectorSize = 128 }),
		"negative interval": mk(func(c *Config) { c.SEM.PollIntervalMs = -5 }),
	}
	for name, cfg := range bad {
		t.Run(name, func(t *testing.T) {
			if err := Validate(cfg); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}

	ok := mk(func(c *Config) {
		c.Device.Backend = BackendMmap
		c.Device.WindowSize = 1 << 24
		c.SEM.CounterOverflow = "saturate"
		c.Update.SectorSize = 256 * 1024
	})
	if err := Validate(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalize_DefaultsAndTruncation(t *testing.T) {
	cfg := &Config{
		Lanes:   []LaneConfig{{Index: 0, DeviceName: "CLINK-FEB-LANE-0-LONG"}},
		Publish: &PublishConfig{Endpoint: "x:502"},
	}
	Normalize(cfg)

	if cfg.Device.Backend != BackendFile || cfg.Device.Path != DefaultDevicePath {
		t.Fatalf("unexpected device defaults %+v", cfg.Device)
	}
	if cfg.SEM.PollIntervalMs != 5000 || cfg.SEM.CounterOverflow != "wrap" {
		t.Fatalf("unexpected sem defaults %+v", cfg.SEM)
	}
	if cfg.Update.SettleMs != DefaultSettleMs || cfg.Update.SectorSize != DefaultSectorSize {
		t.Fatalf("unexpected update defaults %+v", cfg.Update)
	}
	if cfg.Publish.TimeoutMs != DefaultPublishTimeoutMs {
		t.Fatalf("unexpected publish timeout %d", cfg.Publish.TimeoutMs)
	}
	if got := cfg.Lanes[0].DeviceName; got != "CLINK-FEB-LANE-0" {
		t.Fatalf("expected 16-char name, got %q", got)
	}
}

func TestNormalize_SimKeepsEmptyPath(t *testing.T) {
	cfg := &Config{Device: DeviceConfig{Backend: BackendSim}}
	Normalize(cfg)
	if cfg.Device.Path != "" {
		t.Fatalf("sim backend should not get a device path, got %q", cfg.Device.Path)
	}
}

func TestParse(t *testing.T) {
	raw := []byte(`
device:
  backend: mmap
  path: /dev/mem
  map_offset: 0x80000000
  window_size: 0x4000000
  version3: true
lanes:
  - index: 0
    base: 0x1000000
    device_name: FEB-A
    status_slot: 2
sem:
  poll_interval_ms: 250
  counter_overflow: saturate
publish:
  endpoint: 10.0.0.5:502
  unit_id: 7
metrics:
  listen: ":9108"
`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Device.Version3 || cfg.Device.MapOffset != 0x80000000 {
		t.Fatalf("unexpected device %+v", cfg.Device)
	}
	l := cfg.Lanes[0]
	if l.Base == nil || *l.Base != 0x1000000 || l.LinkBase != nil || *l.StatusSlot != 2 {
		t.Fatalf("unexpected lane %+v", l)
	}
	if cfg.Publish.UnitID != 7 || cfg.Metrics.Listen != ":9108" {
		t.Fatalf("unexpected publish/metrics %+v %+v", cfg.Publish, cfg.Metrics)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
}

func TestParse_UnknownKeyRejected(t *testing.T) {
	if _, err := Parse([]byte("device:\n  backnd: sim\n")); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
