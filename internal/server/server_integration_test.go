package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/safetycam/internal/app"
	"github.com/ayusman/safetycam/internal/store"
)

func TestAPI_AlertWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Empty log
	resp, err := client.Get(ts.URL + "/api/alerts")
	if err != nil {
		t.Fatalf("GET /api/alerts error = %v", err)
	}
	var listed struct {
		Alerts []struct {
			ID string `json:"id"`
		} `json:"alerts"`
		Total int `json:"total"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if listed.Total != 0 {
		t.Fatalf("total = %d, want 0", listed.Total)
	}

	// 2. An alert fires and a delivery fails
	if err := s.Alerts().Create(&store.Alert{ID: "evt-1", Sequence: 31, Topic: "t", Payload: "red", Message: "m"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Failures().RecordFailure("publish", "t", errors.New("offline")); err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}

	// 3. List alerts
	resp, _ = client.Get(ts.URL + "/api/alerts")
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Alerts) != 1 || listed.Alerts[0].ID != "evt-1" {
		t.Fatalf("alerts = %+v, want evt-1", listed.Alerts)
	}

	// 4. Get single alert
	resp, _ = client.Get(ts.URL + "/api/alerts/evt-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/alerts/evt-1 status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 5. Failures
	resp, _ = client.Get(ts.URL + "/api/failures")
	var failures struct {
		Failures []struct {
			Channel string `json:"channel"`
			Error   string `json:"error"`
		} `json:"failures"`
	}
	json.NewDecoder(resp.Body).Decode(&failures)
	resp.Body.Close()
	if len(failures.Failures) != 1 || failures.Failures[0].Error != "offline" {
		t.Fatalf("failures = %+v", failures.Failures)
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}

func readStatus(t *testing.T, conn *websocket.Conn) app.Status {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var st app.Status
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	// Verdicts and states are text on the wire, so decode only the numbers.
	var partial struct {
		Frames  uint64 `json:"frames"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.Unmarshal(msg, &partial); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	st.Frames, st.Enabled = partial.Frames, partial.Enabled
	return st
}

func TestAPI_StatusStream(t *testing.T) {
	status := newFakeStatus()
	srv := New(Config{Status: status, PollInterval: 10 * time.Millisecond})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/status/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// Current status on connect
	if st := readStatus(t, conn); st.Frames != 42 {
		t.Fatalf("initial frames = %d, want 42", st.Frames)
	}

	// Pushed when the pipeline advances
	status.advance()
	for {
		if st := readStatus(t, conn); st.Frames == 43 {
			break
		}
	}

	// Pushed when detection is toggled
	status.SetEnabled(false)
	for {
		if st := readStatus(t, conn); !st.Enabled {
			break
		}
	}
}

type fakeFrames struct {
	jpeg []byte
}

func (f *fakeFrames) LatestFrame() []byte {
	return f.jpeg
}

func TestAPI_Stream(t *testing.T) {
	srv := New(Config{Frames: &fakeFrames{jpeg: []byte{0xFF, 0xD8, 0xFF, 0xD9}}})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("Content-Type = %s", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read boundary: %v", err)
	}
	if line != "--frame\r\n" {
		t.Errorf("boundary = %q, want --frame", line)
	}
	line, _ = r.ReadString('\n')
	if line != "Content-Type: image/jpeg\r\n" {
		t.Errorf("part header = %q", line)
	}
	line, _ = r.ReadString('\n')
	if line != "Content-Length: 4\r\n" {
		t.Errorf("length header = %q", line)
	}
}
