// internal/sem/tracker.go
package sem

import (
	"fmt"
	"strings"
)

// OverflowPolicy selects how a 12-bit counter behaves past CounterMax.
//
// Whether the SEM firmware wraps or saturates is not documented; wrap is the
// default. Both are tested, and hardware integration runs must confirm which
// one the deployed firmware implements.
type OverflowPolicy uint8

const (
	OverflowWrap OverflowPolicy = iota
	OverflowSaturate
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowWrap:
		return "wrap"
	case OverflowSaturate:
		return "saturate"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", uint8(p))
	}
}

// ParseOverflowPolicy parses "wrap" or "saturate" (case-insensitive). Empty means wrap.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wrap":
		return OverflowWrap, nil
	case "saturate":
		return OverflowSaturate, nil
	default:
		return 0, fmt.Errorf("sem: unknown counter overflow policy %q", s)
	}
}

// Tracker extends successive 12-bit counter readings into 64-bit running totals.
// Not safe for concurrent use; one tracker per poller.
type Tracker struct {
	policy OverflowPolicy
	primed bool
	prev   Counters
	totals [NumCounters]uint64
}

// NewTracker creates a tracker with the given overflow policy.
func NewTracker(p OverflowPolicy) *Tracker {
	return &Tracker{policy: p}
}

// Update folds one reading into the totals and returns per-counter increments.
// The first reading seeds the totals with the raw values.
func (t *Tracker) Update(c Counters) [NumCounters]uint64 {
	var delta [NumCounters]uint64

	for i := range c {
		cur := c[i] & CounterMax

		if !t.primed {
			delta[i] = uint64(cur)
		} else {
			prev := t.prev[i]
			switch t.policy {
			case OverflowSaturate:
				if cur >= prev {
					delta[i] = uint64(cur - prev)
				} else {
					// A saturating counter only goes down on device reset.
					delta[i] = uint64(cur)
				}
			default:
				delta[i] = uint64((int(cur) - int(prev) + CounterMax + 1) % (CounterMax + 1))
			}
		}

		t.totals[i] += delta[i]
		t.prev[i] = cur
	}

	t.primed = true
	return delta
}

// Totals returns the accumulated totals.
func (t *Tracker) Totals() [NumCounters]uint64 { return t.totals }

// Saturated reports whether counter i is pinned at CounterMax under the saturate policy.
func (t *Tracker) Saturated(i int) bool {
	if i < 0 || i >= NumCounters || !t.primed {
		return false
	}
	return t.policy == OverflowSaturate && t.prev[i] == CounterMax
}
