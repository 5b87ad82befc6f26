// cmd/semctl/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/tamzrod/clink-feb/internal/board"
	"github.com/tamzrod/clink-feb/internal/config"
	"github.com/tamzrod/clink-feb/internal/sem"
)

const usage = `usage: semctl [flags] <command> [args]

commands:
  status                      SEM status code and flags
  counters                    eight SEM event counters
  heartbeat                   SEM heartbeat counter
  version                     AxiVersion identity
  xadc                        die temperature and supply rails
  inject-idle                 move SEM to Idle
  inject-observation          move SEM to Observation
  inject-error                inject one error at the loaded address
  inject-reset                reset the SEM controller
  inject-at <frame> <word> <bit>
                              inject one error at a configuration memory location
  fpga-index [n]              read or set the FPGA index
`

func main() {
	var (
		dev      = flag.String("dev", config.DefaultDevicePath, "path to device")
		backend  = flag.String("backend", config.BackendFile, "register backend: file | mmap | sim")
		lane     = flag.Int("lane", 0, "PGP lane index (range from 0 to 3)")
		cfgPath  = flag.String("config", "", "optional YAML config (overrides --dev/--backend)")
		version3 = flag.Bool("version3", false, "true = PGPv3, false = PGP2b")
		debug    = flag.Bool("debug", false, "log register transactions")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	log := zap.NewNop()
	if *debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
		log = l
	}

	cfg, err := loadConfig(*cfgPath, *backend, *dev, *lane, *version3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	b, _, err := board.FromConfig(cfg, -1, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open device: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	if err := run(os.Stdout, b, *lane, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", flag.Arg(0), err)
		b.Close()
		if errors.Is(err, errLinkDown) {
			os.Exit(3)
		}
		os.Exit(2)
	}
}

var errLinkDown = errors.New("PGP link not ready")

// run refuses to touch the FEB unless the lane link is up.
func run(w io.Writer, b *board.Board, lane int, cmd string, args []string) error {
	feb, err := b.Lane(lane)
	if err != nil {
		return err
	}
	ready, err := b.Gate.LinkReady(lane)
	if err != nil {
		return fmt.Errorf("read link: %w", err)
	}
	if !ready {
		return fmt.Errorf("lane %d: %w", lane, errLinkDown)
	}
	return dispatch(w, feb, cmd, args)
}

func loadConfig(path, backend, dev string, lane int, version3 bool) (*config.Config, error) {
	var cfg *config.Config
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = &config.Config{
			Device: config.DeviceConfig{Backend: backend, Path: dev, Version3: version3},
			Lanes:  []config.LaneConfig{{Index: lane}},
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

// dispatch runs one command against feb and prints its result to w.
func dispatch(w io.Writer, feb *board.FEB, cmd string, args []string) error {
	c := feb.SEM

	switch cmd {
	case "status":
		st, err := c.ReadStatus()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "status=%s raw=%d essential=%t uncorrectable=%t\n",
			st.Code, uint8(st.Code), st.Essential, st.Uncorrectable)

	case "counters":
		cnt, err := c.ReadCounters()
		if err != nil {
			return err
		}
		for i, v := range cnt {
			fmt.Fprintf(w, "%-16s %4d\n", sem.CounterName(i), v)
		}

	case "heartbeat":
		hb, err := c.ReadHeartbeat()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "heartbeat=%d\n", hb)

	case "version":
		info, err := feb.Version.Read()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "FpgaVersion: 0x%08X\nUpTime:      %s\nFdSerial:    0x%016X\nDeviceId:    0x%08X\nGitHash:     %s\nBuildStamp:  %s\n",
			info.FpgaVersion, info.UpTime, info.FdSerial, info.DeviceID, info.GitHash, info.BuildStamp)

	case "xadc":
		r, err := feb.Xadc.Read()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "temperature=%.2fC vccint=%.3fV vccaux=%.3fV vccbram=%.3fV\n",
			r.TemperatureC, r.VccInt, r.VccAux, r.VccBram)

	case "inject-idle":
		return c.InjectIdleState()
	case "inject-observation":
		return c.InjectObservationState()
	case "inject-error":
		return c.InjectError()
	case "inject-reset":
		return c.InjectReset()

	case "inject-at":
		if len(args) != 3 {
			return fmt.Errorf("want <frame> <word> <bit>, got %d args", len(args))
		}
		var v [3]uint64
		for i, a := range args {
			n, err := strconv.ParseUint(a, 0, 32)
			if err != nil {
				return fmt.Errorf("bad argument %q: %w", a, err)
			}
			v[i] = n
		}
		return c.InjectAt(sem.InjectionAddress{
			LinearFrame: uint32(v[0]),
			WordAddress: uint32(v[1]),
			BitAddress:  uint32(v[2]),
		})

	case "fpga-index":
		if len(args) == 0 {
			n, err := c.FpgaIndex()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "fpga_index=%d\n", n)
			return nil
		}
		n, err := strconv.ParseUint(args[0], 0, 4)
		if err != nil {
			return fmt.Errorf("bad index %q: %w", args[0], err)
		}
		return c.SetFpgaIndex(uint8(n))

	default:
		return fmt.Errorf("unknown command")
	}
	return nil
}
