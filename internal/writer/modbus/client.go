// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/jpillora/backoff"
)

// ErrBackoff is returned while a failed endpoint is waiting to be redialled.
var ErrBackoff = errors.New("writer modbus: endpoint in reconnect backoff")

// EndpointClient is a single TCP connection to the status endpoint.
// It serializes requests because it mutates SlaveId per write.
// After a failed write the connection is dropped and redialled no sooner
// than the backoff delay; writes in between fail fast with ErrBackoff.
type EndpointClient struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client

	connected bool
	retryAt   time.Time
	backoff   *backoff.Backoff
	now       func() time.Time
}

type Config struct {
	Endpoint   string
	Timeout    time.Duration
	MinBackoff time.Duration // default 500ms
	MaxBackoff time.Duration // default 30s
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &EndpointClient{
		handler:   h,
		client:    modbus.NewClient(h),
		connected: true,
		backoff: &backoff.Backoff{
			Min:    cfg.MinBackoff,
			Max:    cfg.MaxBackoff,
			Factor: 2,
			Jitter: true,
		},
		now: time.Now,
	}, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return c.handler.Close()
}

func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnected(); err != nil {
		return err
	}

	c.handler.SlaveId = unitID

	qty := uint16(len(regs))
	payload := packRegisters(regs)

	if _, err := c.client.WriteMultipleRegisters(addr, qty, payload); err != nil {
		c.fail()
		return err
	}
	c.backoff.Reset()
	return nil
}

// ensureConnected redials a dropped connection once the backoff delay passed.
func (c *EndpointClient) ensureConnected() error {
	if c.connected {
		return nil
	}
	if c.now().Before(c.retryAt) {
		return ErrBackoff
	}
	if err := c.handler.Connect(); err != nil {
		c.retryAt = c.now().Add(c.backoff.Duration())
		return fmt.Errorf("writer modbus: reconnect %s: %w", c.handler.Address, err)
	}
	c.connected = true
	return nil
}

func (c *EndpointClient) fail() {
	_ = c.handler.Close()
	c.connected = false
	c.retryAt = c.now().Add(c.backoff.Duration())
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
