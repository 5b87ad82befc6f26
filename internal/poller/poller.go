// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/clink-feb/internal/link"
	"github.com/tamzrod/clink-feb/internal/sem"
)

// ErrLinkDown is reported for a cycle skipped because the lane link is not ready.
var ErrLinkDown = errors.New("poller: link not ready")

// Client abstracts the SEM reads needed by the poller.
type Client interface {
	ReadStatus() (sem.Status, error)
	ReadCounters() (sem.Counters, error)
	ReadHeartbeat() (uint32, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Lane     int
	Name     string
	Interval time.Duration
	Overflow sem.OverflowPolicy
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg     Config
	client  Client
	tracker *sem.Tracker
	gate    link.Gate
	log     *zap.Logger

	lastCode sem.StatusCode
	seen     bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the logger for status transitions.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// WithGate makes every cycle check the lane link before reading SEM.
func WithGate(g link.Gate) Option {
	return func(p *Poller) {
		p.gate = g
	}
}

// New creates a poller with immutable config.
func New(cfg Config, client Client, opts ...Option) (*Poller, error) {
	if cfg.Lane < 0 {
		return nil, errors.New("poller: lane must be >= 0")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("lane%d", cfg.Lane)
	}

	p := &Poller{
		cfg:     cfg,
		client:  client,
		tracker: sem.NewTracker(cfg.Overflow),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(zap.Int("lane", cfg.Lane), zap.String("device", cfg.Name))
	return p, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle and leaves the tracker untouched.
// A link that is not ready fails the cycle before any SEM register is read.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		Lane: p.cfg.Lane,
		Name: p.cfg.Name,
		At:   time.Now(),
	}

	if p.gate != nil {
		ready, err := p.gate.LinkReady(p.cfg.Lane)
		if err != nil {
			res.Err = fmt.Errorf("poller: read link: %w", err)
			return res
		}
		if !ready {
			res.Err = ErrLinkDown
			return res
		}
	}

	st, err := p.client.ReadStatus()
	if err != nil {
		res.Err = fmt.Errorf("poller: read status: %w", err)
		return res
	}
	counters, err := p.client.ReadCounters()
	if err != nil {
		res.Err = fmt.Errorf("poller: read counters: %w", err)
		return res
	}
	hb, err := p.client.ReadHeartbeat()
	if err != nil {
		res.Err = fmt.Errorf("poller: read heartbeat: %w", err)
		return res
	}

	// Commit only if all reads succeeded
	res.Status = st
	res.Counters = counters
	res.Heartbeat = hb
	res.Deltas = p.tracker.Update(counters)
	res.Totals = p.tracker.Totals()

	p.observe(st)
	return res
}

// observe logs status transitions; unknown codes are warnings, never errors.
func (p *Poller) observe(st sem.Status) {
	if p.seen && st.Code == p.lastCode {
		return
	}
	p.seen = true
	p.lastCode = st.Code

	if !st.Code.Known() {
		p.log.Warn("unknown SEM status code",
			zap.Uint8("raw", uint8(st.Code)),
			zap.Bool("essential", st.Essential),
			zap.Bool("uncorrectable", st.Uncorrectable),
		)
		return
	}
	p.log.Info("SEM status", zap.Stringer("status", st.Code))
}
