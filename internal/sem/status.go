// internal/sem/status.go
package sem

import "fmt"

// StatusCode is the state reported by the SEM controller state machine.
// Values outside the defined set are kept verbatim and reported as Unknown(n).
type StatusCode uint8

const (
	StatusInitialization StatusCode = 0
	StatusUndefined      StatusCode = 1
	StatusObservation    StatusCode = 2
	StatusCorrection     StatusCode = 4
	StatusClassification StatusCode = 8
	StatusInjection      StatusCode = 16
	StatusIdle           StatusCode = 32
	StatusHalt           StatusCode = 95
)

var statusNames = map[StatusCode]string{
	StatusInitialization: "Initialization",
	StatusUndefined:      "Undefined",
	StatusObservation:    "Observation",
	StatusCorrection:     "Correction",
	StatusClassification: "Classification",
	StatusInjection:      "Injection",
	StatusIdle:           "Idle",
	StatusHalt:           "Halt",
}

// DecodeStatus maps the raw 7-bit field to a StatusCode. It never fails.
func DecodeStatus(raw uint64) StatusCode {
	return StatusCode(raw & 0x7F)
}

// Known reports whether the code is one of the device-defined states.
func (c StatusCode) Known() bool {
	_, ok := statusNames[c]
	return ok
}

func (c StatusCode) String() string {
	if s, ok := statusNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%d)", uint8(c))
}

// Status is one read of the SEM status word.
type Status struct {
	Code          StatusCode
	Essential     bool
	Uncorrectable bool
}
