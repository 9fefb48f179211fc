package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gofichero/model"
	"gofichero/printer/fichero"
)

// echoStatusWriter acknowledges every command with a ready status byte.
type echoStatusWriter struct {
	client *fichero.Client
}

func (w *echoStatusWriter) Write(data []byte) error {
	w.client.HandleNotification([]byte{0x00})
	return nil
}

func newTestServer() *Server {
	w := &echoStatusWriter{}
	c := fichero.NewClient(w)
	w.client = c
	return New(c, nil)
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp model.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response isn't valid JSON: %v", err)
	}
	if !resp.Ready || resp.Flags != "ready" {
		t.Errorf("Status 0x00 should report ready: %+v", resp)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestPrintRejectsBadJSON(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/print", strings.NewReader("not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestPrintRejectsInconsistentBitmap(t *testing.T) {
	s := newTestServer()

	body, _ := json.Marshal(model.PrintingRequest{
		Width:  96,
		Height: 10,
		Data:   []byte{1, 2, 3},
	})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/print", strings.NewReader(string(body))))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}
