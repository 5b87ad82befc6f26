// internal/sem/counters.go
package sem

// Counter indices, in register order.
const (
	CountInitialization = iota
	CountObservation
	CountCorrection
	CountClassification
	CountInjection
	CountIdle
	CountEssential
	CountUncorrectable

	NumCounters
)

var counterNames = [NumCounters]string{
	"InitializationCount",
	"ObservationCount",
	"CorrectionCount",
	"ClassificationCount",
	"InjectionCount",
	"IdleCount",
	"EssentialCount",
	"UncorrectableCount",
}

// CounterName returns the register name of counter i.
func CounterName(i int) string {
	if i < 0 || i >= NumCounters {
		return ""
	}
	return counterNames[i]
}

// Counters is one read of the eight 12-bit SEM counters.
// Values are always in 0..CounterMax.
type Counters [NumCounters]uint16

// DecodeCounter truncates a raw reading to the 12-bit counter width.
func DecodeCounter(raw uint64) uint16 {
	return uint16(raw & CounterMax)
}
