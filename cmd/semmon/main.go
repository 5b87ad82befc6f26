// cmd/semmon/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/clink-feb/internal/board"
	"github.com/tamzrod/clink-feb/internal/config"
	"github.com/tamzrod/clink-feb/internal/metrics"
	"github.com/tamzrod/clink-feb/internal/poller"
	"github.com/tamzrod/clink-feb/internal/status"
	"github.com/tamzrod/clink-feb/internal/writer"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	if *cfgPath == "" {
		fmt.Fprintln(os.Stderr, "usage: semmon --config <config.yaml>")
		os.Exit(1)
	}

	var (
		log *zap.Logger
		err error
	)
	if *debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(*cfgPath, log); err != nil {
		log.Fatal("semmon stopped", zap.Error(err))
	}
}

func run(cfgPath string, log *zap.Logger) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	b, _, err := board.FromConfig(cfg, -1, log)
	if err != nil {
		return fmt.Errorf("open device failed: %w", err)
	}
	defer b.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	// ---- status publisher (optional, shared endpoint) ----
	var (
		cli      writerClient
		closeCli = func() error { return nil }
	)
	if cfg.Publish != nil {
		c, closeFn, err := writer.BuildEndpointClient(cfg.Publish)
		if err != nil {
			return fmt.Errorf("publish endpoint failed: %w", err)
		}
		cli, closeCli = c, closeFn
	}
	defer closeCli()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// --------------------
	// Metrics endpoint
	// --------------------

	if cfg.Metrics.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("metrics listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// --------------------
	// Build per-lane pipelines
	// --------------------

	for _, lc := range cfg.Lanes {
		lc := lc
		feb, err := b.Lane(lc.Index)
		if err != nil {
			return err
		}

		p, err := poller.Build(lc, cfg.SEM, feb.SEM, b.Gate, log)
		if err != nil {
			return fmt.Errorf("poller build failed (lane=%d): %w", lc.Index, err)
		}

		plan, err := writer.BuildPlan(lc, cfg.Publish)
		if err != nil {
			return fmt.Errorf("writer plan failed (lane=%d): %w", lc.Index, err)
		}
		var sw writer.StatusWriter
		if w, enabled := writer.NewDeviceStatusWriter(plan, cli); enabled {
			sw = w
		}

		out := make(chan poller.PollResult)
		g.Go(func() error {
			p.Run(ctx, out)
			return nil
		})
		g.Go(func() error {
			consume(ctx, feb, m, sw, out, log.With(zap.Int("lane", lc.Index)))
			return nil
		})
	}

	return g.Wait()
}

// writerClient is what writer.NewDeviceStatusWriter accepts.
type writerClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// consume is the lane orchestrator: metrics, state and status delivery.
func consume(ctx context.Context, feb *board.FEB, m *metrics.Metrics, sw writer.StatusWriter, in <-chan poller.PollResult, log *zap.Logger) {
	snap := status.Snapshot{Health: status.HealthUnknown}

	// Full block write on start (identity re-assert) if enabled.
	if sw != nil {
		if err := sw.WriteStatus(snap); err != nil {
			log.Warn("status write failed on start", zap.Error(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-in:
			m.ObservePoll(res)
			if res.Err != nil {
				log.Warn("SEM poll failed", zap.Error(res.Err))
			} else if r, err := feb.Xadc.Read(); err == nil {
				m.ObserveXadc(feb.Lane, feb.Name, r)
			}

			next := poller.NextSnapshot(snap, res)
			if next == snap || sw == nil {
				snap = next
				continue
			}
			snap = next
			if err := sw.WriteStatus(snap); err != nil {
				log.Warn("status write failed", zap.Error(err))
			}
		}
	}
}
