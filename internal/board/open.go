// internal/board/open.go
package board

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/tamzrod/clink-feb/internal/config"
	"github.com/tamzrod/clink-feb/internal/regport"
)

// OpenPort opens the register backend named by the device config.
// The sim backend returns a *regport.SimPort and a nil closer.
func OpenPort(dc config.DeviceConfig) (regport.Port, io.Closer, error) {
	switch dc.Backend {
	case config.BackendSim:
		return regport.NewSimPort(), nil, nil

	case config.BackendMmap:
		p, err := regport.OpenMmap(dc.Path, dc.MapOffset, dc.WindowSize)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil

	case config.BackendFile, "":
		p, err := regport.OpenFile(dc.Path)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil

	default:
		return nil, nil, fmt.Errorf("board: unknown backend %q", dc.Backend)
	}
}

// FromConfig opens the backend and composes the board for a validated,
// normalized config. For the sim backend the port is primed as healthy
// hardware with a flash emulator on flashLane; the Simulation is nil otherwise.
func FromConfig(cfg *config.Config, flashLane int, log *zap.Logger) (*Board, *Simulation, error) {
	port, closer, err := OpenPort(cfg.Device)
	if err != nil {
		return nil, nil, err
	}

	b, err := New(port, closer, cfg.Lanes, cfg.Device.Version3, log)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, err
	}

	var sim *Simulation
	if sp, ok := port.(*regport.SimPort); ok {
		sim = PrimeSim(sp, b, cfg.Device.Version3, flashLane)
	}
	return b, sim, nil
}
