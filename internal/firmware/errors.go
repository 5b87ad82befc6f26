// internal/firmware/errors.go
package firmware

import (
	"errors"
	"fmt"
)

// Sentinels matched by AbortError through errors.Is.
var (
	ErrLinkDown           = errors.New("firmware: link down")
	ErrProgramFailed      = errors.New("firmware: program failed")
	ErrReloadVerifyFailed = errors.New("firmware: reload verify failed")
)

// errLinkLost is the cause when the link does not come back after reload.
var errLinkLost = errors.New("firmware: link not ready after reload")

// AbortError is returned when the sequence stops before Success.
// Err is the underlying cause, nil when the abort came from a clean
// negative result (link not ready, programmer reported incomplete).
type AbortError struct {
	Step   Step
	Reason Reason
	Err    error
}

func (e *AbortError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("firmware: aborted at %s (%s): %v", e.Step, e.Reason, e.Err)
	}
	return fmt.Sprintf("firmware: aborted at %s (%s)", e.Step, e.Reason)
}

func (e *AbortError) Unwrap() error { return e.Err }

// Is matches the sentinel for the abort reason.
func (e *AbortError) Is(target error) bool {
	switch target {
	case ErrLinkDown:
		return e.Reason == LinkDown
	case ErrProgramFailed:
		return e.Reason == ProgramFailed
	case ErrReloadVerifyFailed:
		return e.Reason == ReloadVerifyFailed
	}
	return false
}
