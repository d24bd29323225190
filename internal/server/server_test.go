package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/ayusman/gesturegenie/internal/capture"
	"github.com/ayusman/gesturegenie/internal/genie"
	"github.com/ayusman/gesturegenie/internal/logging"
	"github.com/ayusman/gesturegenie/internal/store"
)

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Clients *int   `json:"clients"`
}

func getHealth(t *testing.T, h http.Handler) healthResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	return resp
}

func TestServer_HealthWithoutHub(t *testing.T) {
	resp := getHealth(t, New(Config{}))

	if resp.Status != "ok" || resp.Uptime == "" {
		t.Errorf("health = %+v", resp)
	}
	if resp.Clients != nil {
		t.Errorf("clients = %d, want field omitted without a hub", *resp.Clients)
	}
}

func TestServer_HealthCountsClients(t *testing.T) {
	hub := NewHub(newKeyRecorder(), &clientCounter{}, logging.NewNop())
	srv := New(Config{Hub: hub, Logger: logging.NewNop()})
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})

	if resp := getHealth(t, srv); resp.Clients == nil || *resp.Clients != 0 {
		t.Fatalf("clients before connect = %v, want 0", resp.Clients)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	defer conn.Close()
	waitFor(t, "client registration", func() bool { return hub.Clients() == 1 })

	if resp := getHealth(t, srv); resp.Clients == nil || *resp.Clients != 1 {
		t.Errorf("clients after connect = %v, want 1", resp.Clients)
	}
}

func TestServer_HealthMethods(t *testing.T) {
	s := New(Config{})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s /api/health: status = %d, want %d", method, rec.Code, http.StatusMethodNotAllowed)
		}
	}
}

func TestServer_RoutesFollowDependencies(t *testing.T) {
	logger := logging.NewNop()

	st, err := store.New(filepath.Join(t.TempDir(), "routes.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	controller := genie.NewController(genie.NewContourGenerator(1), genie.NewLogPlayer(logger), genie.DefaultSettings(), logger)
	hub := NewHub(nil, nil, logger)
	t.Cleanup(hub.Close)
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("genie_frames_total 0\n"))
	})

	tests := []struct {
		name   string
		path   string
		method string
		with   Config
		want   int
	}{
		{name: "sessions", path: "/api/sessions", method: http.MethodGet, with: Config{Store: st}, want: http.StatusOK},
		{name: "settings", path: "/api/settings", method: http.MethodGet, with: Config{Controller: controller}, want: http.StatusOK},
		// A plain GET is not a websocket handshake.
		{name: "events", path: "/api/events", method: http.MethodGet, with: Config{Hub: hub}, want: http.StatusBadRequest},
		// GET would stream forever.
		{name: "stream", path: "/api/stream", method: http.MethodPost, with: Config{Frames: capture.NewSharedFrame()}, want: http.StatusMethodNotAllowed},
		{name: "metrics", path: "/metrics", method: http.MethodGet, with: Config{Metrics: metricsHandler}, want: http.StatusOK},
	}

	// Each route is missing without its dependency and answers with want once
	// the dependency is set.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(Config{Logger: logger}).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != http.StatusNotFound {
				t.Errorf("without dependency: %s status = %d, want %d", tt.path, rec.Code, http.StatusNotFound)
			}

			cfg := tt.with
			cfg.Logger = logger
			rec = httptest.NewRecorder()
			New(cfg).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("with dependency: %s status = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}
}

func TestServer_StaticDir(t *testing.T) {
	dir := t.TempDir()
	index := "<html><body>genie</body></html>"
	script := "console.log('genie')"
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(Config{StaticDir: dir})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{path: "/", wantCode: http.StatusOK, wantBody: index},
		{path: "/app.js", wantCode: http.StatusOK, wantBody: script},
		{path: "/missing.css", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rec.Code != tt.wantCode {
			t.Errorf("GET %s: status = %d, want %d", tt.path, rec.Code, tt.wantCode)
		}
		if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
			t.Errorf("GET %s: body = %q, want %q", tt.path, rec.Body.String(), tt.wantBody)
		}
	}

	// API routes still win over the file server.
	if resp := getHealth(t, s); resp.Status != "ok" {
		t.Errorf("health with static dir = %+v", resp)
	}
}

func TestServer_NoStaticDir(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("GET / status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
