// cmd/febupdate/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/clink-feb/internal/board"
	"github.com/tamzrod/clink-feb/internal/config"
	"github.com/tamzrod/clink-feb/internal/firmware"
	"github.com/tamzrod/clink-feb/internal/prom"
)

// Exit codes. Callers use them to decide whether a retry is safe.
const (
	exitOK            = 0
	exitUsage         = 1
	exitLinkDown      = 2 // flash untouched, safe to retry
	exitProgramFailed = 3 // flash contents undefined, running FPGA untouched, safe to retry
	exitReloadFailed  = 4 // flash written, FPGA did not come back
	exitInternal      = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		dev      = flag.String("dev", config.DefaultDevicePath, "path to device")
		version3 = flag.Bool("version3", false, "true = PGPv3, false = PGP2b")
		mcs      = flag.String("mcs", "", "path to MCS file")
		lane     = flag.Int("lane", -1, "PGP lane index (range from 0 to 3)")
		cfgPath  = flag.String("config", "", "optional YAML config (device and lane layout)")
		settle   = flag.Duration("settle", 0, "post-reload settle wait (default from config, 5s)")
		simulate = flag.Bool("simulate", false, "run against an in-memory simulated FEB")
		debug    = flag.Bool("debug", false, "development logging")
	)
	flag.Parse()

	if *mcs == "" || *lane < 0 || *lane >= config.MaxLanes {
		fmt.Fprintln(os.Stderr, "usage: febupdate --mcs <file.mcs> --lane <0..3> [--dev /dev/datadev_0] [--version3]")
		flag.PrintDefaults()
		return exitUsage
	}

	log, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return exitInternal
	}
	defer func() { _ = log.Sync() }()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := loadConfig(*cfgPath, *dev, *version3, *lane, *simulate)
	if err != nil {
		log.Error("config failed", zap.Error(err))
		return exitUsage
	}
	if *settle > 0 {
		cfg.Update.SettleMs = int(settle.Milliseconds())
	}

	// --------------------
	// Compose the board
	// --------------------

	b, _, err := board.FromConfig(cfg, *lane, log)
	if err != nil {
		log.Error("open device failed", zap.String("dev", cfg.Device.Path), zap.Error(err))
		return exitInternal
	}
	defer b.Close()

	feb, err := b.Lane(*lane)
	if err != nil {
		log.Error("lane not configured", zap.Int("lane", *lane), zap.Error(err))
		return exitUsage
	}

	lastDecile := -1
	flash := feb.Flash(
		prom.WithSectorSize(cfg.Update.SectorSize),
		prom.WithLogger(log),
		prom.WithProgressCallback(func(p prom.Progress) {
			if d := int(p.Percentage) / 10; d != lastDecile {
				lastDecile = d
				log.Info("prom progress",
					zap.String("phase", p.Phase),
					zap.Float64("percent", p.Percentage),
					zap.Duration("elapsed", p.Elapsed),
				)
			}
		}),
	)

	seq, err := firmware.New(b.Gate, feb.Version, flash,
		firmware.WithSettle(time.Duration(cfg.Update.SettleMs)*time.Millisecond),
		firmware.WithProgramTimeout(time.Duration(cfg.Update.ProgramTimeoutMs)*time.Millisecond),
		firmware.WithLogger(log),
	)
	if err != nil {
		log.Error("sequencer build failed", zap.Error(err))
		return exitInternal
	}

	// --------------------
	// Run
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := seq.Run(ctx, firmware.Request{Lane: *lane, Image: *mcs})
	if err == nil {
		log.Info("update complete", zap.String("run_id", res.RunID.String()), zap.Duration("elapsed", res.Elapsed))
		return exitOK
	}

	var ae *firmware.AbortError
	if !errors.As(err, &ae) {
		log.Error("update failed", zap.Error(err))
		return exitInternal
	}

	log.Error("update aborted",
		zap.String("run_id", res.RunID.String()),
		zap.Stringer("step", ae.Step),
		zap.Stringer("reason", ae.Reason),
		zap.Bool("flash_touched", res.Started()),
	)

	switch {
	case errors.Is(err, firmware.ErrLinkDown):
		return exitLinkDown
	case errors.Is(err, firmware.ErrProgramFailed):
		return exitProgramFailed
	default:
		return exitReloadFailed
	}
}

// loadConfig reads --config when given, else builds a single-lane config
// from the command line flags.
func loadConfig(path, dev string, version3 bool, lane int, simulate bool) (*config.Config, error) {
	var cfg *config.Config
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = &config.Config{
			Device: config.DeviceConfig{Path: dev, Version3: version3},
			Lanes:  []config.LaneConfig{{Index: lane}},
		}
	}

	if simulate {
		cfg.Device.Backend = config.BackendSim
	}
	if version3 {
		cfg.Device.Version3 = true
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
