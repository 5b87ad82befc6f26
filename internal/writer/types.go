// internal/writer/types.go
package writer

// StatusPlan locates one lane's status block on the publish endpoint.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint16 // validated <= 255 at write time
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built publish plan for one lane.
type Plan struct {
	Lane   int
	Status *StatusPlan // nil => publishing disabled for this lane
}

// endpointClient is the exact contract the status writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
