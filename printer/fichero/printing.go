package fichero

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gofichero/printer"
)

// The print procedure leans on fixed settle delays rather than
// acknowledgements; the firmware accepts the next command reliably only
// after these waits. Measured against D11s firmware 2.4.6 — don't trim
// them without hardware to validate on.
const (
	// time for the density register to apply internally
	densitySettleDelay = 100 * time.Millisecond

	// gap between consecutive print-control commands
	commandGapDelay = 50 * time.Millisecond

	// time for the printhead mechanism to finish the physical print
	// after the raster payload has been transferred
	printSettleDelay = 500 * time.Millisecond

	// time for the form feed to reach the next label boundary
	postFeedDelay = 300 * time.Millisecond
)

type printState int

const (
	stateIdle printState = iota
	stateReadinessChecked
	stateConfigured
	stateAwake
	stateEnabled
	stateTransferring
	stateSettling
	stateFed
	stateStopped
	stateAborted
)

func (s printState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateReadinessChecked:
		return "readiness-checked"
	case stateConfigured:
		return "configured"
	case stateAwake:
		return "awake"
	case stateEnabled:
		return "enabled"
	case stateTransferring:
		return "transferring"
	case stateSettling:
		return "settling"
	case stateFed:
		return "fed"
	case stateStopped:
		return "stopped"
	case stateAborted:
		return "aborted"
	}
	return "unknown"
}

// Job describes one print: a packed raster plus the knobs the vendor
// app exposes.
type Job struct {
	Bitmap  *printer.PackedBitmap
	Density int
	Paper   PaperMode
	Copies  int
}

// CopyWarning records a non-fatal problem with a single copy.
type CopyWarning struct {
	Copy    int
	Message string
}

func (w CopyWarning) String() string {
	return fmt.Sprintf("copy %d: %s", w.Copy, w.Message)
}

// Result reports how a job went. A job can complete with warnings: a
// missing stop acknowledgement doesn't mean the label didn't print.
type Result struct {
	CopiesPrinted int
	Warnings      []CopyWarning
}

func (r *Result) OK() bool {
	return len(r.Warnings) == 0
}

// NotReadyError reports the readiness gate failing before any data was
// sent. Status carries the specific blocking conditions.
type NotReadyError struct {
	Status Status
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("printer not ready: %s", e.Status)
}

// Print drives the full print procedure: readiness gate, density
// config, then per copy the paper/wake/enable preamble, the chunked
// raster transfer, settle, feed and stop. ctx is only checked between
// copies; a command already in flight always runs to completion.
func (c *Client) Print(ctx context.Context, job Job) (*Result, error) {
	if job.Copies < 1 {
		return nil, fmt.Errorf("copy count must be at least 1, got %d", job.Copies)
	}
	if job.Density < 0 || job.Density > 2 {
		return nil, fmt.Errorf("density level must be 0, 1 or 2, got %d", job.Density)
	}
	b := job.Bitmap
	if b.Stride() != BytesPerRow {
		return nil, fmt.Errorf("bitmap stride %d doesn't match printhead (%d bytes per row)", b.Stride(), BytesPerRow)
	}
	if b.Height() < 1 || b.Height() > MaxRows {
		return nil, fmt.Errorf("bitmap height %d outside 1..%d", b.Height(), MaxRows)
	}

	state := stateIdle
	advance := func(next printState) {
		state = next
		slog.Debug("Print sequencer",
			"state", state.String(),
		)
	}

	status, err := c.Status()
	if err != nil {
		return nil, err
	}
	if !status.Ready() {
		advance(stateAborted)
		return nil, &NotReadyError{Status: status}
	}
	advance(stateReadinessChecked)

	if ok, err := c.SetDensity(job.Density); err != nil {
		return nil, err
	} else if !ok {
		slog.Warn("Density not acknowledged, continuing anyway")
	}
	time.Sleep(densitySettleDelay)
	advance(stateConfigured)

	slog.Info("Printing",
		"rows", b.Height(),
		"bytes", len(b.Data()),
		"copies", job.Copies,
	)

	result := &Result{}
	for copyNum := 1; copyNum <= job.Copies; copyNum++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if job.Copies > 1 {
			slog.Info("Printing copy",
				"copy", copyNum,
				"of", job.Copies,
			)
		}

		if _, err := c.SetPaperMode(job.Paper); err != nil {
			return result, err
		}
		time.Sleep(commandGapDelay)

		if err := c.Wake(); err != nil {
			return result, err
		}
		time.Sleep(commandGapDelay)
		advance(stateAwake)

		if err := c.Enable(); err != nil {
			return result, err
		}
		time.Sleep(commandGapDelay)
		advance(stateEnabled)

		advance(stateTransferring)
		frame := append(rasterHeader(BytesPerRow, uint16(b.Height())), b.Data()...)
		if err := c.SendChunked(frame, ChunkSize); err != nil {
			return result, err
		}

		advance(stateSettling)
		time.Sleep(printSettleDelay)

		if err := c.FormFeed(); err != nil {
			return result, err
		}
		time.Sleep(postFeedDelay)
		advance(stateFed)

		ok, err := c.StopPrint()
		if err != nil {
			return result, err
		}
		if !ok {
			// the mechanical print has very likely finished by now even
			// when the acknowledgement is missing or unrecognised
			slog.Warn("No stop acknowledgement from printer",
				"copy", copyNum,
			)
			result.Warnings = append(result.Warnings, CopyWarning{
				Copy:    copyNum,
				Message: "no stop acknowledgement",
			})
		}
		result.CopiesPrinted++
		advance(stateConfigured)
	}

	advance(stateStopped)
	return result, nil
}
