// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/clink-feb/internal/config"
	wmodbus "github.com/tamzrod/clink-feb/internal/writer/modbus"
)

// BuildPlan converts one lane config into a publish Plan.
// Assumes config has already passed slot collision validation.
func BuildPlan(l cfg.LaneConfig, pub *cfg.PublishConfig) (Plan, error) {
	plan := Plan{Lane: l.Index}

	if l.StatusSlot == nil {
		return plan, nil
	}
	if pub == nil || pub.Endpoint == "" {
		return Plan{}, errors.New("writer: status_slot set without publish endpoint")
	}

	plan.Status = &StatusPlan{
		Endpoint:   pub.Endpoint,
		UnitID:     uint16(pub.UnitID),
		BaseSlot:   *l.StatusSlot,
		DeviceName: l.DeviceName,
	}
	return plan, nil
}

// BuildEndpointClient creates the single TCP client shared by every lane.
func BuildEndpointClient(pub *cfg.PublishConfig) (*wmodbus.EndpointClient, func() error, error) {
	if pub == nil {
		return nil, nil, errors.New("writer: publish config required")
	}

	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: pub.Endpoint,
		Timeout:  time.Duration(pub.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
