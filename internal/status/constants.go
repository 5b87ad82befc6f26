// internal/status/constants.go
package status

// SEM Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per lane.
const SlotsPerDevice = 24

// ---- SLOT INDICES ----

// SlotHealthCode holds the lane health state.
const SlotHealthCode = 0

// SlotSemStatus holds the raw 7-bit SEM status code.
const SlotSemStatus = 1

// SlotFlags holds the flag bits (see Flag*).
const SlotFlags = 2

// SlotHeartbeatHi and SlotHeartbeatLo hold the 32-bit heartbeat, high word first.
const (
	SlotHeartbeatHi = 3
	SlotHeartbeatLo = 4
)

// SlotCountersStart is the first of eight 12-bit SEM counters.
const SlotCountersStart = 5

// SlotCounters is the number of counter slots.
const SlotCounters = 8

// SlotPollErrors holds consecutive poll failures (saturating).
const SlotPollErrors = 13

// SlotLiveEnd is the last slot that changes at runtime (inclusive).
const SlotLiveEnd = SlotPollErrors

// ---- RESERVED RANGE ----

// Slots 14-15 are reserved for future use.
const SlotReservedStart = 14
const SlotReservedEnd = 15

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 16

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- FLAGS ----

const (
	FlagEssential     uint16 = 1 << 0
	FlagUncorrectable uint16 = 1 << 1
	FlagUnknownCode   uint16 = 1 << 2
)

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a lane in observation with no uncorrectable error.
const HealthOK uint16 = 1

// HealthError represents a failed poll (transport error).
const HealthError uint16 = 2

// HealthStale represents a SEM that is not observing (idle, halted, injecting).
const HealthStale uint16 = 3

// HealthDisabled represents a lane with SEM disabled.
const HealthDisabled uint16 = 4

// HealthFault represents an uncorrectable configuration memory error.
const HealthFault uint16 = 5
