// internal/xadc/xadc.go
package xadc

import (
	"github.com/tamzrod/clink-feb/internal/regport"
)

// XADC status registers (relative to the Xadc base).
// Each holds a 12-bit conversion in bits [15:4].
var (
	fieldTemperature = regport.Field{Name: "Temperature", Offset: 0x200, BitOffset: 4, BitSize: 12, Mode: regport.RO}
	fieldVccInt      = regport.Field{Name: "VccInt", Offset: 0x204, BitOffset: 4, BitSize: 12, Mode: regport.RO}
	fieldVccAux      = regport.Field{Name: "VccAux", Offset: 0x208, BitOffset: 4, BitSize: 12, Mode: regport.RO}
	fieldVccBram     = regport.Field{Name: "VccBram", Offset: 0x218, BitOffset: 4, BitSize: 12, Mode: regport.RO}
)

// Reading is one sample of the FPGA die monitors.
type Reading struct {
	TemperatureC float64
	VccInt       float64
	VccAux       float64
	VccBram      float64
}

// Monitor reads the XADC die temperature and supply rails.
type Monitor struct {
	dev *regport.Device
}

func New(dev *regport.Device) *Monitor {
	return &Monitor{dev: dev}
}

// Read samples all monitored channels.
func (m *Monitor) Read() (Reading, error) {
	var r Reading
	for _, p := range []struct {
		f    regport.Field
		conv func(uint64) float64
		dst  *float64
	}{
		{fieldTemperature, Temperature, &r.TemperatureC},
		{fieldVccInt, Voltage, &r.VccInt},
		{fieldVccAux, Voltage, &r.VccAux},
		{fieldVccBram, Voltage, &r.VccBram},
	} {
		raw, err := m.dev.ReadField(p.f)
		if err != nil {
			return Reading{}, err
		}
		*p.dst = p.conv(raw)
	}
	return r, nil
}

// Temperature converts a 12-bit XADC code to degrees Celsius.
func Temperature(raw uint64) float64 {
	return float64(raw)*503.975/4096.0 - 273.15
}

// Voltage converts a 12-bit XADC supply code to volts (3 V full scale).
func Voltage(raw uint64) float64 {
	return float64(raw) * 3.0 / 4096.0
}
