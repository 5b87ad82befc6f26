// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/clink-feb/internal/sem"
)

// PollResult is a snapshot produced by one poll cycle of one lane.
type PollResult struct {
	Lane int
	Name string
	At   time.Time

	Status    sem.Status
	Counters  sem.Counters
	Heartbeat uint32

	// Deltas and Totals come from the lane's overflow tracker.
	Deltas [sem.NumCounters]uint64
	Totals [sem.NumCounters]uint64

	Err error // non-nil means the poll cycle failed; other fields are zero
}
