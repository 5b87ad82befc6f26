// internal/prom/mcs.go
package prom

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// MCS record types (Intel HEX).
const (
	recData            = 0x00
	recEOF             = 0x01
	recExtSegmentAddr  = 0x02
	recExtLinearAddr   = 0x04
	recStartLinearAddr = 0x05
)

// Segment is one contiguous run of image bytes at a PROM byte address.
type Segment struct {
	Addr uint32
	Data []byte
}

// End returns the address one past the last byte.
func (s Segment) End() uint32 { return s.Addr + uint32(len(s.Data)) }

// Image is a parsed MCS file. Segments are sorted and never overlap.
type Image struct {
	Segments []Segment
}

// Size is the number of programmed bytes.
func (img *Image) Size() int {
	n := 0
	for _, s := range img.Segments {
		n += len(s.Data)
	}
	return n
}

// Bounds returns the first address and one past the last address.
func (img *Image) Bounds() (start, end uint32) {
	if len(img.Segments) == 0 {
		return 0, 0
	}
	return img.Segments[0].Addr, img.Segments[len(img.Segments)-1].End()
}

// ParseMCSFile parses an MCS file from disk.
func ParseMCSFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("prom: open mcs: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseMCS(f)
}

// ParseMCS parses MCS (Intel HEX) records from r.
// Every record checksum is validated; data after the EOF record is ignored.
func ParseMCS(r io.Reader) (*Image, error) {
	sc := bufio.NewScanner(r)

	var (
		base    uint32
		segs    []Segment
		lineNum int
		sawEOF  bool
	)

	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		rec, err := parseRecord(line)
		if err != nil {
			return nil, &ParseError{Line: lineNum, Err: err}
		}

		switch rec.kind {
		case recData:
			addr := base + uint32(rec.addr)
			segs = appendData(segs, addr, rec.data)

		case recEOF:
			sawEOF = true

		case recExtSegmentAddr:
			if len(rec.data) != 2 {
				return nil, &ParseError{Line: lineNum, Err: fmt.Errorf("segment address record length %d", len(rec.data))}
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 4

		case recExtLinearAddr:
			if len(rec.data) != 2 {
				return nil, &ParseError{Line: lineNum, Err: fmt.Errorf("linear address record length %d", len(rec.data))}
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 16

		case recStartLinearAddr:
			// execution start address: irrelevant for PROM contents

		default:
			return nil, &ParseError{Line: lineNum, Err: fmt.Errorf("unsupported record type 0x%02x", rec.kind)}
		}

		if sawEOF {
			break
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("prom: read mcs: %w", err)
	}
	if !sawEOF {
		return nil, fmt.Errorf("prom: mcs: missing EOF record")
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("prom: mcs: no data records")
	}

	return normalize(segs)
}

type record struct {
	kind byte
	addr uint16
	data []byte
}

// parseRecord decodes ":LLAAAATT<data>CC".
func parseRecord(line string) (record, error) {
	if line[0] != ':' {
		return record{}, fmt.Errorf("missing ':' start code")
	}
	raw, err := hex.DecodeString(line[1:])
	if err != nil {
		return record{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(raw) < 5 {
		return record{}, fmt.Errorf("record too short: %d bytes", len(raw))
	}

	n := int(raw[0])
	if len(raw) != 5+n {
		return record{}, fmt.Errorf("length mismatch: header says %d data bytes, record has %d", n, len(raw)-5)
	}

	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		return record{}, fmt.Errorf("checksum mismatch")
	}

	return record{
		kind: raw[3],
		addr: uint16(raw[1])<<8 | uint16(raw[2]),
		data: raw[4 : 4+n],
	}, nil
}

// appendData extends the last segment when contiguous, else opens a new one.
func appendData(segs []Segment, addr uint32, data []byte) []Segment {
	if n := len(segs); n > 0 && segs[n-1].End() == addr {
		segs[n-1].Data = append(segs[n-1].Data, data...)
		return segs
	}
	return append(segs, Segment{Addr: addr, Data: append([]byte(nil), data...)})
}

// normalize sorts segments, merges touching ones and rejects overlaps.
func normalize(segs []Segment) (*Image, error) {
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Addr < segs[j].Addr })

	out := []Segment{segs[0]}
	for _, s := range segs[1:] {
		last := &out[len(out)-1]
		switch {
		case s.Addr < last.End():
			return nil, fmt.Errorf("prom: mcs: data at 0x%08x overlaps segment ending 0x%08x", s.Addr, last.End())
		case s.Addr == last.End():
			last.Data = append(last.Data, s.Data...)
		default:
			out = append(out, s)
		}
	}
	return &Image{Segments: out}, nil
}

// ParseError reports a malformed MCS record.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("prom: mcs line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
