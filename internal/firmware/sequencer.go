// internal/firmware/sequencer.go
package firmware

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tamzrod/clink-feb/internal/axiversion"
	"github.com/tamzrod/clink-feb/internal/link"
	"github.com/tamzrod/clink-feb/internal/prom"
)

// DefaultSettle is the blind wait after an FPGA reload.
const DefaultSettle = 5 * time.Second

// Version is the slice of AxiVersion the sequencer needs.
type Version interface {
	Read() (axiversion.Info, error)
	Reload() error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Request names the lane and the image to load.
type Request struct {
	Lane  int
	Image string
}

// Result records one run. Steps lists every step entered, in order.
type Result struct {
	RunID   uuid.UUID
	Lane    int
	Image   string
	Steps   []Step
	Reached Step
	Old     *axiversion.Info
	New     *axiversion.Info
	Elapsed time.Duration
}

// Started reports whether the flash was touched.
// A run that stopped before ProgramFlash is safe to retry as-is.
func (r *Result) Started() bool {
	for _, s := range r.Steps {
		if s == ProgramFlash {
			return true
		}
	}
	return false
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithSettle overrides the post-reload settle wait.
func WithSettle(d time.Duration) Option {
	return func(s *Sequencer) {
		if d >= 0 {
			s.settle = d
		}
	}
}

// WithProgramTimeout bounds ProgramFlash; zero means no bound beyond ctx.
func WithProgramTimeout(d time.Duration) Option {
	return func(s *Sequencer) {
		if d >= 0 {
			s.programTimeout = d
		}
	}
}

// WithSleeper replaces the settle wait implementation.
func WithSleeper(fn Sleeper) Option {
	return func(s *Sequencer) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithLogger sets the logger for step tracing and the run summary.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.log = l
		}
	}
}

// Sequencer drives the reprogram sequence of one FEB. It holds no state
// between runs; the caller decides whether to retry.
type Sequencer struct {
	gate    link.Gate
	version Version
	prog    prom.Programmer

	settle         time.Duration
	programTimeout time.Duration
	sleep          Sleeper
	log            *zap.Logger
}

// New composes a sequencer from its three collaborators.
func New(gate link.Gate, version Version, prog prom.Programmer, opts ...Option) (*Sequencer, error) {
	if gate == nil {
		return nil, errors.New("firmware: link gate is nil")
	}
	if version == nil {
		return nil, errors.New("firmware: version device is nil")
	}
	if prog == nil {
		return nil, errors.New("firmware: programmer is nil")
	}

	s := &Sequencer{
		gate:    gate,
		version: version,
		prog:    prog,
		settle:  DefaultSettle,
		sleep:   sleepCtx,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes the sequence once. On abort it returns the partial Result
// together with an *AbortError.
func (s *Sequencer) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{
		RunID: uuid.New(),
		Lane:  req.Lane,
		Image: req.Image,
	}
	start := time.Now()
	log := s.log.With(
		zap.String("run_id", res.RunID.String()),
		zap.Int("lane", req.Lane),
	)

	enter := func(step Step) {
		res.Steps = append(res.Steps, step)
		res.Reached = step
		log.Debug("firmware step", zap.Stringer("step", step))
	}
	abort := func(step Step, reason Reason, err error) (*Result, error) {
		res.Elapsed = time.Since(start)
		log.Error("firmware update aborted",
			zap.Stringer("step", step),
			zap.Stringer("reason", reason),
			zap.Error(err),
		)
		return res, &AbortError{Step: step, Reason: reason, Err: err}
	}

	// ---------- 1. link ----------

	enter(CheckLink)
	ready, err := s.gate.LinkReady(req.Lane)
	if err != nil {
		return abort(CheckLink, LinkDown, err)
	}
	if !ready {
		return abort(CheckLink, LinkDown, nil)
	}

	// ---------- 2. snapshot (best effort) ----------

	enter(SnapshotOldVersion)
	if info, err := s.version.Read(); err != nil {
		log.Warn("old version snapshot failed", zap.Error(err))
	} else {
		res.Old = &info
		log.Info("current firmware", info.Fields()...)
	}

	// ---------- 3. program ----------

	enter(ProgramFlash)
	done, err := s.program(ctx, req.Image)
	if err != nil {
		return abort(ProgramFlash, ProgramFailed, err)
	}

	// ---------- 4. result ----------

	enter(CheckProgramResult)
	if !done {
		return abort(CheckProgramResult, ProgramFailed, nil)
	}

	// ---------- 5. reload ----------

	enter(TriggerReload)
	if err := s.version.Reload(); err != nil {
		return abort(TriggerReload, ReloadVerifyFailed, err)
	}

	// ---------- 6. settle ----------

	enter(WaitReloadSettle)
	if err := s.sleep(ctx, s.settle); err != nil {
		return abort(WaitReloadSettle, ReloadVerifyFailed, err)
	}

	// ---------- 7. verify ----------

	enter(VerifyNewVersion)
	// A dead link can read back garbage instead of failing.
	ready, err = s.gate.LinkReady(req.Lane)
	if err != nil {
		return abort(VerifyNewVersion, ReloadVerifyFailed, err)
	}
	if !ready {
		return abort(VerifyNewVersion, ReloadVerifyFailed, errLinkLost)
	}
	info, err := s.version.Read()
	if err != nil {
		return abort(VerifyNewVersion, ReloadVerifyFailed, err)
	}
	res.New = &info
	res.Elapsed = time.Since(start)

	log.Info("firmware updated", append(info.Fields(), zap.Duration("elapsed", res.Elapsed))...)
	return res, nil
}

func (s *Sequencer) program(ctx context.Context, image string) (bool, error) {
	if s.programTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.programTimeout)
		defer cancel()
	}
	return s.prog.Load(ctx, image)
}
