// internal/sem/controller.go
package sem

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tamzrod/clink-feb/internal/regport"
)

// Registers is the register access the controller needs.
// *regport.Device satisfies it.
type Registers interface {
	regport.Accessor
	Exclusive(fn func(regport.Accessor) error) error
}

// Controller drives and observes the SEM state machine.
//
// Injection commands are fire-and-forget: the device returns no completion,
// so callers observe the effect by polling ReadStatus / ReadCounters.
//
// Composite commands run to completion once started and cannot be cancelled.
// A register failure aborts the remaining steps and is returned; the device
// may then be left in an intermediate state (hardware-level recovery only).
// Nothing is retried: repeating a strobe may trigger a second transition.
type Controller struct {
	regs Registers
	log  *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for command tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a controller on the SEM register window.
func New(regs Registers, opts ...Option) *Controller {
	c := &Controller{regs: regs, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ---- reads ----

// statusWord covers status code and both flags so they decode from one read.
var statusWord = regport.Field{Name: "SemStatusWord", Offset: 0x00, BitOffset: 0, BitSize: 9, Mode: regport.RO}

// ReadStatus reads the status code and the essential/uncorrectable flags.
// Pure read; safe on any poll interval.
func (c *Controller) ReadStatus() (Status, error) {
	raw, err := c.regs.ReadField(statusWord)
	if err != nil {
		return Status{}, err
	}
	w := []uint32{uint32(raw)}
	return Status{
		Code:          DecodeStatus(fieldStatus.Extract(w)),
		Essential:     fieldEssential.Extract(w) == 1,
		Uncorrectable: fieldUncorrectable.Extract(w) == 1,
	}, nil
}

// ReadCounters reads all eight counters.
func (c *Controller) ReadCounters() (Counters, error) {
	var out Counters
	for i := range out {
		raw, err := c.regs.ReadField(counterField(i))
		if err != nil {
			return Counters{}, err
		}
		out[i] = DecodeCounter(raw)
	}
	return out, nil
}

// ReadHeartbeat reads the free-running heartbeat counter.
func (c *Controller) ReadHeartbeat() (uint32, error) {
	v, err := c.regs.ReadField(fieldHeartbeat)
	return uint32(v), err
}

// ReadInjectionAddress reads the four subfields of the injection address register.
func (c *Controller) ReadInjectionAddress() (InjectionAddress, error) {
	var a InjectionAddress
	for _, p := range []struct {
		f   regport.Field
		dst *uint32
	}{
		{fieldInjectBitAddress, &a.BitAddress},
		{fieldInjectWordAddress, &a.WordAddress},
		{fieldInjectLinearFrame, &a.LinearFrame},
		{fieldInjectAddrHigh, &a.AddrHigh},
	} {
		v, err := c.regs.ReadField(p.f)
		if err != nil {
			return InjectionAddress{}, err
		}
		*p.dst = uint32(v)
	}
	return a, nil
}

// FpgaIndex reads the 4-bit FPGA index.
func (c *Controller) FpgaIndex() (uint8, error) {
	v, err := c.regs.ReadField(fieldFpgaIndex)
	return uint8(v), err
}

// SetFpgaIndex writes the 4-bit FPGA index.
func (c *Controller) SetFpgaIndex(n uint8) error {
	return c.regs.WriteField(fieldFpgaIndex, uint64(n))
}

// ---- commands ----

// InjectIdleState requests a transition to Idle. Always legal.
func (c *Controller) InjectIdleState() error {
	return c.run("idle", func(a regport.Accessor) error {
		return transition(a, CodeIdle)
	})
}

// InjectObservationState requests a transition to Observation.
func (c *Controller) InjectObservationState() error {
	return c.run("observation", func(a regport.Accessor) error {
		return transition(a, CodeObservation)
	})
}

// InjectError injects an error at the current injection address.
// The device only accepts the inject code from Idle and must be returned
// to Observation afterwards, so the order Idle, ErrorInject, Observation is fixed.
func (c *Controller) InjectError() error {
	return c.run("error", func(a regport.Accessor) error {
		for _, code := range []uint64{CodeIdle, CodeErrorInject, CodeObservation} {
			if err := transition(a, code); err != nil {
				return err
			}
		}
		return nil
	})
}

// InjectReset resets the SEM controller. Must originate from Idle.
func (c *Controller) InjectReset() error {
	return c.run("reset", func(a regport.Accessor) error {
		for _, code := range []uint64{CodeIdle, CodeReset} {
			if err := transition(a, code); err != nil {
				return err
			}
		}
		return nil
	})
}

// InjectAt loads a configuration-memory location into the low injection
// subfields and then runs the InjectError protocol against it.
func (c *Controller) InjectAt(addr InjectionAddress) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	return c.run("error-at", func(a regport.Accessor) error {
		if err := transition(a, CodeIdle); err != nil {
			return err
		}
		for _, p := range []struct {
			f regport.Field
			v uint32
		}{
			{fieldInjectLinearFrame, addr.LinearFrame},
			{fieldInjectWordAddress, addr.WordAddress},
			{fieldInjectBitAddress, addr.BitAddress},
		} {
			if err := a.WriteField(p.f, uint64(p.v)); err != nil {
				return fmt.Errorf("sem: set %s: %w", p.f.Name, err)
			}
		}
		if err := transition(a, CodeErrorInject); err != nil {
			return err
		}
		return transition(a, CodeObservation)
	})
}

// run executes one composite command inside the exclusive scope.
func (c *Controller) run(name string, fn func(regport.Accessor) error) error {
	err := c.regs.Exclusive(fn)
	if err != nil {
		c.log.Error("sem inject aborted", zap.String("command", name), zap.Error(err))
		return fmt.Errorf("sem: inject %s: %w", name, err)
	}
	c.log.Debug("sem inject issued", zap.String("command", name))
	return nil
}

// transition is the two-phase strobe command: set AddrHigh, then pulse.
func transition(a regport.Accessor, code uint64) error {
	if err := a.WriteField(fieldInjectAddrHigh, code); err != nil {
		return fmt.Errorf("sem: set %s=0x%03x: %w", fieldInjectAddrHigh.Name, code, err)
	}
	if err := a.Pulse(fieldInjectStrobe); err != nil {
		return fmt.Errorf("sem: pulse %s: %w", fieldInjectStrobe.Name, err)
	}
	return nil
}
