// internal/poller/snapshot.go
package poller

import "github.com/tamzrod/clink-feb/internal/status"

// NextSnapshot folds one poll result into the lane's published state.
// A failed poll keeps the last SEM fields, marks the lane in error and
// bumps the poll error counter, which MUST NOT wrap.
func NextSnapshot(prev status.Snapshot, res PollResult) status.Snapshot {
	if res.Err != nil {
		next := prev
		next.Health = status.HealthError
		if next.PollErrors < 0xFFFF {
			next.PollErrors++
		}
		return next
	}
	return status.FromSEM(res.Status, res.Counters, res.Heartbeat)
}
