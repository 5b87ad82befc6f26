// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultDevicePath       = "/dev/datadev_0"
	DefaultPollIntervalMs   = 5000
	DefaultSettleMs         = 5000
	DefaultProgramTimeoutMs = 30 * 60 * 1000
	DefaultSectorSize       = 64 * 1024
	DefaultPublishTimeoutMs = 2000
	DefaultCounterOverflow  = "wrap"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	if cfg.Device.Backend == "" {
		cfg.Device.Backend = BackendFile
	}
	if cfg.Device.Path == "" && cfg.Device.Backend != BackendSim {
		cfg.Device.Path = DefaultDevicePath
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if cfg.SEM.PollIntervalMs == 0 {
		cfg.SEM.PollIntervalMs = DefaultPollIntervalMs
	}
	if cfg.SEM.CounterOverflow == "" {
		cfg.SEM.CounterOverflow = DefaultCounterOverflow
	}
	if cfg.Update.SettleMs == 0 {
		cfg.Update.SettleMs = DefaultSettleMs
	}
	if cfg.Update.ProgramTimeoutMs == 0 {
		cfg.Update.ProgramTimeoutMs = DefaultProgramTimeoutMs
	}
	if cfg.Update.SectorSize == 0 {
		cfg.Update.SectorSize = DefaultSectorSize
	}
	if cfg.Publish != nil && cfg.Publish.TimeoutMs == 0 {
		cfg.Publish.TimeoutMs = DefaultPublishTimeoutMs
	}

	// ------------------------------------------------------------
	// DEVICE NAME
	// ------------------------------------------------------------

	for i := range cfg.Lanes {
		l := &cfg.Lanes[i]
		// ASCII already validated; status block holds 16 characters
		if len(l.DeviceName) > 16 {
			l.DeviceName = l.DeviceName[:16]
		}
	}
}
