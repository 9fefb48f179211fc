package fichero

import (
	"bytes"
	"testing"
)

func TestCommandBytes(t *testing.T) {
	cases := []struct {
		name     string
		got      []byte
		expected []byte
	}{
		{"queryModel", queryModel(), []byte{0x10, 0xFF, 0x20, 0xF0}},
		{"queryFirmware", queryFirmware(), []byte{0x10, 0xFF, 0x20, 0xF1}},
		{"querySerial", querySerial(), []byte{0x10, 0xFF, 0x20, 0xF2}},
		{"queryBootVersion", queryBootVersion(), []byte{0x10, 0xFF, 0x20, 0xEF}},
		{"queryBattery", queryBattery(), []byte{0x10, 0xFF, 0x50, 0xF1}},
		{"queryStatus", queryStatus(), []byte{0x10, 0xFF, 0x40}},
		{"queryDeviceInfo", queryDeviceInfo(), []byte{0x10, 0xFF, 0x70}},
		{"setDensity", setDensity(2), []byte{0x10, 0xFF, 0x10, 0x00, 0x02}},
		{"setPaperMode", setPaperMode(PaperBlackMark), []byte{0x10, 0xFF, 0x84, 0x01}},
		{"setShutdownTimeout", setShutdownTimeout(300), []byte{0x10, 0xFF, 0x12, 0x01, 0x2C}},
		{"factoryReset", factoryReset(), []byte{0x10, 0xFF, 0x04}},
		{"enablePrinter", enablePrinter(), []byte{0x10, 0xFF, 0xFE, 0x01}},
		{"stopPrint", stopPrint(), []byte{0x10, 0xFF, 0xFE, 0x45}},
		{"feedDots", feedDots(0x20), []byte{0x1B, 0x4A, 0x20}},
		{"formFeed", formFeed(), []byte{0x1D, 0x0C}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if !bytes.Equal(c.got, c.expected) {
				t.Errorf("Expected % X, got % X", c.expected, c.got)
			}
		})
	}
}

func TestWakePreamble(t *testing.T) {
	p := wakePreamble()
	if len(p) != 12 {
		t.Fatalf("Expected 12-byte preamble, got %d", len(p))
	}
	for _, b := range p {
		if b != 0 {
			t.Fatalf("Preamble must be all zero, got % X", p)
		}
	}
}

func TestRasterHeader(t *testing.T) {
	for _, rows := range []uint16{0, 1, 240, 255, 256, 0x1234, 65535} {
		h := rasterHeader(BytesPerRow, rows)

		if !bytes.Equal(h[:6], []byte{0x1D, 0x76, 0x30, 0x00, 0x0C, 0x00}) {
			t.Errorf("rows=%d: bad header prefix % X", rows, h[:6])
		}
		roundTrip := uint16(h[6]) | uint16(h[7])<<8
		if roundTrip != rows {
			t.Errorf("Row count %d didn't round-trip, got %d", rows, roundTrip)
		}
	}
}

func TestParsePaperMode(t *testing.T) {
	for s, expected := range map[string]PaperMode{
		"":           PaperGap,
		"gap":        PaperGap,
		"black":      PaperBlackMark,
		"continuous": PaperContinuous,
	} {
		m, err := ParsePaperMode(s)
		if err != nil || m != expected {
			t.Errorf("ParsePaperMode(%q) = %v, %v", s, m, err)
		}
	}

	if _, err := ParsePaperMode("bogus"); err == nil {
		t.Errorf("Expected error for unknown paper mode")
	}
}
