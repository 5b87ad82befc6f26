// internal/prom/mcs_test.go
package prom

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// rec renders one Intel HEX record with a valid checksum.
func rec(kind byte, addr uint16, data ...byte) string {
	sum := byte(len(data)) + byte(addr>>8) + byte(addr) + kind
	var b strings.Builder
	fmt.Fprintf(&b, ":%02X%04X%02X", len(data), addr, kind)
	for _, d := range data {
		sum += d
		fmt.Fprintf(&b, "%02X", d)
	}
	fmt.Fprintf(&b, "%02X", byte(-int(sum)))
	return b.String()
}

func mcs(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestParseMCS_KnownRecords(t *testing.T) {
	img, err := ParseMCS(mcs(
		":020000040000FA",
		":0400000001020304F2",
		":00000001FF",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(img.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(img.Segments))
	}
	s := img.Segments[0]
	if s.Addr != 0 || string(s.Data) != "\x01\x02\x03\x04" {
		t.Fatalf("unexpected segment: %+v", s)
	}
}

func TestParseMCS_LinearAddressAndMerge(t *testing.T) {
	img, err := ParseMCS(mcs(
		rec(recExtLinearAddr, 0, 0x00, 0x01),
		rec(recData, 0xFFFE, 0xAA, 0xBB),
		rec(recExtLinearAddr, 0, 0x00, 0x02),
		rec(recData, 0x0000, 0xCC, 0xDD),
		rec(recData, 0x1000, 0xEE),
		rec(recEOF, 0),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(img.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(img.Segments), img.Segments)
	}
	if img.Segments[0].Addr != 0x1FFFE || len(img.Segments[0].Data) != 4 {
		t.Fatalf("expected merged run at 0x1FFFE, got %+v", img.Segments[0])
	}
	if img.Segments[1].Addr != 0x21000 {
		t.Fatalf("expected second segment at 0x21000, got 0x%X", img.Segments[1].Addr)
	}
	if img.Size() != 5 {
		t.Fatalf("expected 5 bytes, got %d", img.Size())
	}
	if start, end := img.Bounds(); start != 0x1FFFE || end != 0x21001 {
		t.Fatalf("unexpected bounds 0x%X..0x%X", start, end)
	}
}

func TestParseMCS_SegmentAddress(t *testing.T) {
	img, err := ParseMCS(mcs(
		rec(recExtSegmentAddr, 0, 0x10, 0x00),
		rec(recData, 0x0004, 0x55),
		rec(recEOF, 0),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Segments[0].Addr != 0x10004 {
		t.Fatalf("expected 0x10004, got 0x%X", img.Segments[0].Addr)
	}
}

func TestParseMCS_OutOfOrderDataIsSorted(t *testing.T) {
	img, err := ParseMCS(mcs(
		rec(recData, 0x0100, 0x02),
		rec(recData, 0x0000, 0x01),
		rec(recEOF, 0),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Segments[0].Addr != 0 || img.Segments[1].Addr != 0x100 {
		t.Fatalf("segments not sorted: %+v", img.Segments)
	}
}

func TestParseMCS_IgnoresDataAfterEOF(t *testing.T) {
	img, err := ParseMCS(mcs(
		rec(recData, 0, 0x01),
		rec(recEOF, 0),
		"garbage",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Size() != 1 {
		t.Fatalf("expected 1 byte, got %d", img.Size())
	}
}

func TestParseMCS_Errors(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		line  int
	}{
		{"bad checksum", []string{":0400000001020304F3", rec(recEOF, 0)}, 1},
		{"no start code", []string{"0400000001020304F2", rec(recEOF, 0)}, 1},
		{"bad hex", []string{":04zz", rec(recEOF, 0)}, 1},
		{"length mismatch", []string{":05000000010203040E", rec(recEOF, 0)}, 1},
		{"unsupported type", []string{rec(0x03, 0, 0, 0, 0, 0), rec(recEOF, 0)}, 1},
		{"bad linear record", []string{rec(recData, 0, 1), rec(recExtLinearAddr, 0, 1), rec(recEOF, 0)}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMCS(mcs(tc.lines...))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Line != tc.line {
				t.Fatalf("expected line %d, got %d", tc.line, pe.Line)
			}
		})
	}
}

func TestParseMCS_StructuralErrors(t *testing.T) {
	if _, err := ParseMCS(mcs(rec(recData, 0, 1))); err == nil {
		t.Fatalf("expected error for missing EOF")
	}
	if _, err := ParseMCS(mcs(rec(recEOF, 0))); err == nil {
		t.Fatalf("expected error for image without data")
	}
	if _, err := ParseMCS(mcs(
		rec(recData, 0, 1, 2, 3, 4),
		rec(recData, 2, 9),
		rec(recEOF, 0),
	)); err == nil {
		t.Fatalf("expected overlap error")
	}
}
