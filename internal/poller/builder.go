// internal/poller/builder.go
package poller

import (
	"time"

	"go.uber.org/zap"

	cfg "github.com/tamzrod/clink-feb/internal/config"
	"github.com/tamzrod/clink-feb/internal/link"
	"github.com/tamzrod/clink-feb/internal/sem"
)

// Build constructs a Poller for one configured lane.
// Config must be validated and normalized. gate may be nil to poll unconditionally.
func Build(l cfg.LaneConfig, s cfg.SEMConfig, client Client, gate link.Gate, log *zap.Logger) (*Poller, error) {
	policy, err := sem.ParseOverflowPolicy(s.CounterOverflow)
	if err != nil {
		return nil, err
	}

	return New(
		Config{
			Lane:     l.Index,
			Name:     l.DeviceName,
			Interval: time.Duration(s.PollIntervalMs) * time.Millisecond,
			Overflow: policy,
		},
		client,
		WithLogger(log),
		WithGate(gate),
	)
}
