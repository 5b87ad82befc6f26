// internal/config/config.go
package config

type Config struct {
	Device  DeviceConfig   `yaml:"device"`
	Lanes   []LaneConfig   `yaml:"lanes"`
	SEM     SEMConfig      `yaml:"sem"`
	Update  UpdateConfig   `yaml:"update"`
	Publish *PublishConfig `yaml:"publish"` // optional status block publishing
	Metrics MetricsConfig  `yaml:"metrics"`
}

// ---- DEVICE ----

// Backend names accepted by device.backend.
const (
	BackendSim  = "sim"
	BackendMmap = "mmap"
	BackendFile = "file"
)

type DeviceConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	MapOffset  int64  `yaml:"map_offset"`  // mmap only
	WindowSize int    `yaml:"window_size"` // mmap only
	Version3   bool   `yaml:"version3"`    // PGPv3 link monitor layout
}

// ---- LANE ----

type LaneConfig struct {
	Index      int     `yaml:"index"`
	Base       *uint64 `yaml:"base"`      // FEB register window; nil => board default
	LinkBase   *uint64 `yaml:"link_base"` // host PGP monitor; nil => board default
	DeviceName string  `yaml:"device_name"`

	// Status block slot on the publish endpoint (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
}

// ---- SEM ----

type SEMConfig struct {
	PollIntervalMs  int    `yaml:"poll_interval_ms"`
	CounterOverflow string `yaml:"counter_overflow"` // wrap | saturate
}

// ---- UPDATE ----

type UpdateConfig struct {
	SettleMs         int    `yaml:"settle_ms"`
	ProgramTimeoutMs int    `yaml:"program_timeout_ms"`
	SectorSize       uint32 `yaml:"sector_size"`
}

// ---- PUBLISH ----

type PublishConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables /metrics
}
