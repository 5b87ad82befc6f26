// internal/firmware/steps.go
package firmware

import "fmt"

// Step is one state of the reprogram sequence, in execution order.
type Step int

const (
	CheckLink Step = iota
	SnapshotOldVersion
	ProgramFlash
	CheckProgramResult
	TriggerReload
	WaitReloadSettle
	VerifyNewVersion
)

var stepNames = [...]string{
	CheckLink:          "CheckLink",
	SnapshotOldVersion: "SnapshotOldVersion",
	ProgramFlash:       "ProgramFlash",
	CheckProgramResult: "CheckProgramResult",
	TriggerReload:      "TriggerReload",
	WaitReloadSettle:   "WaitReloadSettle",
	VerifyNewVersion:   "VerifyNewVersion",
}

func (s Step) String() string {
	if s >= 0 && int(s) < len(stepNames) {
		return stepNames[s]
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Reason classifies an aborted sequence.
type Reason int

const (
	LinkDown Reason = iota + 1
	ProgramFailed
	ReloadVerifyFailed
)

func (r Reason) String() string {
	switch r {
	case LinkDown:
		return "LinkDown"
	case ProgramFailed:
		return "ProgramFailed"
	case ReloadVerifyFailed:
		return "ReloadVerifyFailed"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}
