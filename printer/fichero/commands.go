// Package fichero drives Fichero/D11s thermal label printers over BLE.
// The command protocol was reverse-engineered from the vendor app; info
// and config commands live under the 10 FF prefix, raster transfer uses
// the ESC/POS GS v 0 frame.
package fichero

import "fmt"

const (
	Esc = 0x1B
	GS  = 0x1D
	Dle = 0x10
)

// Printhead geometry for this device class. Every raster row is exactly
// BytesPerRow packed bytes.
const (
	PrintheadWidth = 96
	BytesPerRow    = PrintheadWidth / 8
	MaxRows        = 240
)

// ChunkSize bounds a single BLE write during raster transfer.
const ChunkSize = 200

// PaperMode selects how the printer detects label boundaries.
type PaperMode byte

const (
	PaperGap        PaperMode = 0x00
	PaperBlackMark  PaperMode = 0x01
	PaperContinuous PaperMode = 0x02
)

func ParsePaperMode(s string) (PaperMode, error) {
	switch s {
	case "", "gap":
		return PaperGap, nil
	case "black":
		return PaperBlackMark, nil
	case "continuous":
		return PaperContinuous, nil
	}
	return 0, fmt.Errorf("unknown paper mode %q (use gap/black/continuous)", s)
}

// ackToken is the reply to a successful config write.
var ackToken = []byte("OK")

// stopDoneMarker is the single-byte stop-print acknowledgement emitted
// by some firmware revisions; others reply with the ack token instead.
const stopDoneMarker = 0xAA

func queryModel() []byte {
	return []byte{Dle, 0xFF, 0x20, 0xF0}
}

func queryFirmware() []byte {
	return []byte{Dle, 0xFF, 0x20, 0xF1}
}

func querySerial() []byte {
	return []byte{Dle, 0xFF, 0x20, 0xF2}
}

func queryBootVersion() []byte {
	return []byte{Dle, 0xFF, 0x20, 0xEF}
}

func queryBattery() []byte {
	return []byte{Dle, 0xFF, 0x50, 0xF1}
}

func queryStatus() []byte {
	return []byte{Dle, 0xFF, 0x40}
}

func queryDensity() []byte {
	return []byte{Dle, 0xFF, 0x11}
}

func queryShutdownTimeout() []byte {
	return []byte{Dle, 0xFF, 0x13}
}

// queryDeviceInfo asks for the pipe-delimited full info record.
func queryDeviceInfo() []byte {
	return []byte{Dle, 0xFF, 0x70}
}

func setDensity(level byte) []byte {
	return []byte{Dle, 0xFF, 0x10, 0x00, level}
}

func setPaperMode(m PaperMode) []byte {
	return []byte{Dle, 0xFF, 0x84, byte(m)}
}

func setShutdownTimeout(minutes uint16) []byte {
	return []byte{Dle, 0xFF, 0x12, byte(minutes >> 8), byte(minutes & 0xFF)}
}

func factoryReset() []byte {
	return []byte{Dle, 0xFF, 0x04}
}

// wakePreamble rouses the printhead controller before a print. The
// device expects a fixed-length run of zero bytes.
func wakePreamble() []byte {
	return make([]byte, 12)
}

func enablePrinter() []byte {
	return []byte{Dle, 0xFF, 0xFE, 0x01}
}

func stopPrint() []byte {
	return []byte{Dle, 0xFF, 0xFE, 0x45}
}

func feedDots(dots byte) []byte {
	return []byte{Esc, 0x4A, dots}
}

func formFeed() []byte {
	return []byte{GS, 0x0C}
}

// rasterHeader builds the transfer frame header, followed immediately
// by rows*widthBytes raster bytes:
//
//	[GS][76][30][00][widthBytes][00][rowsLo][rowsHi]
func rasterHeader(widthBytes byte, rows uint16) []byte {
	return []byte{
		GS, 0x76, 0x30, 0x00,
		widthBytes, 0x00,
		byte(rows & 0xFF), byte(rows >> 8),
	}
}
