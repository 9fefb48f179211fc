// Package server exposes the connected printer over HTTP: job
// submission, status/info queries and a websocket event stream.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"gofichero/journal"
	"gofichero/model"
	"gofichero/printer"
	"gofichero/printer/fichero"
)

type Server struct {
	client  *fichero.Client
	journal *journal.Journal

	// the correlator serializes commands; this serializes whole jobs so
	// a second submission gets a clean 503 instead of queueing silently
	printing sync.Mutex

	events *Registry
}

// New wires a server over a connected client. The journal may be nil to
// disable history.
func New(client *fichero.Client, j *journal.Journal) *Server {
	return &Server{
		client:  client,
		journal: j,
		events:  NewRegistry(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/print", s.handlePrint)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/battery", s.handleBattery)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Only GET method is supported", http.StatusMethodNotAllowed)
		return
	}

	status, err := s.client.Status()
	if err != nil {
		http.Error(w, "printer not reachable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, model.StatusResponse{
		Raw:        status.Raw,
		Ready:      status.Ready(),
		Flags:      status.String(),
		Printing:   status.Printing,
		CoverOpen:  status.CoverOpen,
		NoPaper:    status.NoPaper,
		LowBattery: status.LowBattery,
		Overheated: status.Overheated,
		Charging:   status.Charging,
	})
}

func (s *Server) handleBattery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Only GET method is supported", http.StatusMethodNotAllowed)
		return
	}

	level, err := s.client.Battery()
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "printer not connected")
		return
	}
	fmt.Fprintf(w, "%v", level)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Only GET method is supported", http.StatusMethodNotAllowed)
		return
	}

	resp := model.DeviceInfoResponse{}
	var err error
	if resp.Model, err = s.client.Model(); err != nil {
		http.Error(w, "printer not reachable", http.StatusServiceUnavailable)
		return
	}
	resp.FirmwareVersion, _ = s.client.Firmware()
	resp.BootVersion, _ = s.client.BootVersion()
	resp.Serial, _ = s.client.Serial()
	resp.BatteryLevel, _ = s.client.Battery()
	resp.ShutdownTimeout, _ = s.client.ShutdownTimeout()
	if status, err := s.client.Status(); err == nil {
		resp.Status = status.String()
	}

	writeJSON(w, resp)
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is supported", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	var request model.PrintingRequest
	if err = json.Unmarshal(body, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bitmap, err := printer.BitmapFromRequest(&request)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	paper, err := fichero.ParsePaperMode(request.Paper)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	copies := request.Copies
	if copies < 1 {
		copies = 1
	}

	if !s.printing.TryLock() {
		http.Error(w, "a print job is already in progress", http.StatusServiceUnavailable)
		return
	}
	defer s.printing.Unlock()

	id := uuid.NewString()
	s.events.Broadcast(model.JobEvent{Type: "started", ID: id, Copies: copies})

	result, err := s.client.Print(r.Context(), fichero.Job{
		Bitmap:  printer.PackBitmap(bitmap),
		Density: request.Density,
		Paper:   paper,
		Copies:  copies,
	})
	if err != nil {
		s.events.Broadcast(model.JobEvent{Type: "failed", ID: id, Message: err.Error()})

		var notReady *fichero.NotReadyError
		if errors.As(err, &notReady) {
			http.Error(w, err.Error(), http.StatusConflict)
		} else if errors.Is(err, fichero.ErrResponseTimeout) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	response := model.JobResponse{ID: id, CopiesPrinted: result.CopiesPrinted}
	for _, warning := range result.Warnings {
		response.Warnings = append(response.Warnings, warning.String())
		s.events.Broadcast(model.JobEvent{Type: "warning", ID: id, Copy: warning.Copy, Message: warning.Message})
	}
	s.events.Broadcast(model.JobEvent{Type: "done", ID: id, Copies: result.CopiesPrinted})

	s.record(id, "remote", bitmap.Height(), result)

	writeJSON(w, response)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Error("Couldn't accept websocket client", "err", err)
		return
	}

	s.events.Add(conn)
	slog.Info("Event client connected", "total", s.events.Count())

	// clients only listen; the read loop just detects disconnection
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	s.events.Remove(conn)
	conn.Close(websocket.StatusNormalClosure, "disconnected")
	slog.Info("Event client disconnected", "remaining", s.events.Count())
}

func (s *Server) record(id string, kind string, rows int, result *fichero.Result) {
	if s.journal == nil {
		return
	}
	err := s.journal.Record(journal.Entry{
		ID:        id,
		Kind:      kind,
		Rows:      rows,
		Copies:    result.CopiesPrinted,
		Warnings:  len(result.Warnings),
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("Couldn't record job in journal", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Couldn't encode response", "err", err)
	}
}
