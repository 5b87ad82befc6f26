// internal/axiversion/axiversion.go
package axiversion

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/clink-feb/internal/regport"
)

// AxiVersion register map (relative to the AxiVersion base).
var (
	fieldFpgaVersion = regport.Field{Name: "FpgaVersion", Offset: 0x000, BitSize: 32, Mode: regport.RO}
	fieldScratchPad  = regport.Field{Name: "ScratchPad", Offset: 0x004, BitSize: 32, Mode: regport.RW}
	fieldUpTimeCnt   = regport.Field{Name: "UpTimeCnt", Offset: 0x008, BitSize: 32, Mode: regport.RO}
	fieldFpgaReload  = regport.Field{Name: "FpgaReload", Offset: 0x104, BitSize: 1, Mode: regport.Strobe}
	fieldUserReset   = regport.Field{Name: "UserReset", Offset: 0x10C, BitSize: 1, Mode: regport.RW}
	fieldFdSerial    = regport.Field{Name: "FdSerial", Offset: 0x300, BitSize: 64, Mode: regport.RO}
	fieldDeviceID    = regport.Field{Name: "DeviceId", Offset: 0x500, BitSize: 32, Mode: regport.RO}
)

const (
	gitHashOffset    = 0x600
	gitHashWords     = 5 // 160 bits
	buildStampOffset = 0x800
	buildStampWords  = 64 // 256 bytes
)

// Info is the firmware identity read from AxiVersion.
type Info struct {
	FpgaVersion uint32
	UpTime      time.Duration
	FdSerial    uint64
	DeviceID    uint32
	GitHash     string
	BuildStamp  string
}

// Fields renders Info as structured log fields (status printout).
func (i Info) Fields() []zap.Field {
	return []zap.Field{
		zap.String("fpga_version", fmt.Sprintf("0x%08X", i.FpgaVersion)),
		zap.Duration("uptime", i.UpTime),
		zap.String("fd_serial", fmt.Sprintf("0x%016X", i.FdSerial)),
		zap.String("device_id", fmt.Sprintf("0x%08X", i.DeviceID)),
		zap.String("git_hash", i.GitHash),
		zap.String("build_stamp", i.BuildStamp),
	}
}

// Device reads firmware identity and issues reload commands.
type Device struct {
	dev *regport.Device
}

// New wraps the AxiVersion register window.
func New(dev *regport.Device) *Device {
	return &Device{dev: dev}
}

// Read reads every identity field. Any failure is returned.
func (d *Device) Read() (Info, error) {
	var info Info

	v, err := d.dev.ReadField(fieldFpgaVersion)
	if err != nil {
		return Info{}, err
	}
	info.FpgaVersion = uint32(v)

	if v, err = d.dev.ReadField(fieldUpTimeCnt); err != nil {
		return Info{}, err
	}
	info.UpTime = time.Duration(v) * time.Second

	if v, err = d.dev.ReadField(fieldFdSerial); err != nil {
		return Info{}, err
	}
	info.FdSerial = v

	if v, err = d.dev.ReadField(fieldDeviceID); err != nil {
		return Info{}, err
	}
	info.DeviceID = uint32(v)

	hash, err := d.dev.ReadWords(gitHashOffset, gitHashWords)
	if err != nil {
		return Info{}, err
	}
	info.GitHash = decodeGitHash(hash)

	stamp, err := d.dev.ReadWords(buildStampOffset, buildStampWords)
	if err != nil {
		return Info{}, err
	}
	info.BuildStamp = decodeString(stamp)

	return info, nil
}

// FpgaVersion reads only the version word.
func (d *Device) FpgaVersion() (uint32, error) {
	v, err := d.dev.ReadField(fieldFpgaVersion)
	return uint32(v), err
}

// ScratchPad reads the scratch register.
func (d *Device) ScratchPad() (uint32, error) {
	v, err := d.dev.ReadField(fieldScratchPad)
	return uint32(v), err
}

// SetScratchPad writes the scratch register (link sanity checks).
func (d *Device) SetScratchPad(v uint32) error {
	return d.dev.WriteField(fieldScratchPad, uint64(v))
}

// Reload strobes FpgaReload: the FPGA reloads its configuration from PROM.
// The firmware logic resets; the host link is not power-cycled.
func (d *Device) Reload() error {
	return d.dev.Pulse(fieldFpgaReload)
}

// UserReset pulses the user reset line (assert then release).
func (d *Device) UserReset() error {
	if err := d.dev.WriteField(fieldUserReset, 1); err != nil {
		return err
	}
	return d.dev.WriteField(fieldUserReset, 0)
}

// decodeGitHash renders the 160-bit hash, most significant word last in memory.
// An all-zero hash denotes a dirty build.
func decodeGitHash(words []uint32) string {
	b := make([]byte, 0, 4*len(words))
	for i := len(words) - 1; i >= 0; i-- {
		w := words[i]
		b = append(b, byte(w>>24), byte(w>>16), byte(w>>8), byte(w))
	}
	for _, c := range b {
		if c != 0 {
			return hex.EncodeToString(b)
		}
	}
	return "dirty (uncommitted code)"
}

// decodeString unpacks little-endian words into a NUL-terminated ASCII string.
func decodeString(words []uint32) string {
	var sb strings.Builder
	for _, w := range words {
		for s := uint(0); s < 32; s += 8 {
			c := byte(w >> s)
			if c == 0 {
				return sb.String()
			}
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
