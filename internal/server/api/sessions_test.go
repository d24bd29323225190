package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/gesturegenie/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func seedSession(t *testing.T, s *store.Store, id string, started time.Time) {
	t.Helper()

	if err := s.Sessions().Create(&store.Session{ID: id, NumButtons: 8, Temperature: 0.25, StartedAt: started}); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	err := s.Events().Append(
		&store.NoteEvent{SessionID: id, Slot: 0, Note: 39, Pitch: 60, Down: true, Source: "gesture", At: started},
		&store.NoteEvent{SessionID: id, Slot: 0, Note: 39, Pitch: 60, Down: false, Source: "gesture", At: started.Add(time.Second)},
	)
	if err != nil {
		t.Fatalf("failed to append events: %v", err)
	}
}

func TestSessionHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	seedSession(t, s, "first", base)
	seedSession(t, s, "second", base.Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(response.Sessions))
	}
	if response.Sessions[0].ID != "second" {
		t.Errorf("newest session should come first, got %s", response.Sessions[0].ID)
	}
	if response.Sessions[0].NoteCount != 1 || !response.Sessions[0].Active {
		t.Errorf("unexpected session %+v", response.Sessions[0])
	}
}

func TestSessionHandler_ListLimit(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		seedSession(t, s, id, base.Add(time.Duration(i)*time.Minute))
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "limit 2", query: "?limit=2", wantStatus: http.StatusOK, wantCount: 2},
		{name: "limit 0 is unlimited", query: "?limit=0", wantStatus: http.StatusOK, wantCount: 3},
		{name: "bad limit", query: "?limit=x", wantStatus: http.StatusBadRequest},
		{name: "negative limit", query: "?limit=-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sessions"+tt.query, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var response listSessionsResponse
			json.NewDecoder(rec.Body).Decode(&response)
			if len(response.Sessions) != tt.wantCount {
				t.Errorf("expected %d sessions, got %d", tt.wantCount, len(response.Sessions))
			}
		})
	}
}

func TestSessionHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	seedSession(t, s, "s1", time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	t.Run("existing session includes events", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response struct {
			ID     string          `json:"id"`
			Events []eventResponse `json:"events"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.ID != "s1" {
			t.Errorf("expected id s1, got %s", response.ID)
		}
		if len(response.Events) != 2 || !response.Events[0].Down || response.Events[1].Down {
			t.Errorf("unexpected events %+v", response.Events)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
		var response errorResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if response.Error != "Session not found" {
			t.Errorf("unexpected error %q", response.Error)
		}
	})
}

func TestSessionHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	seedSession(t, s, "s1", time.Now().UTC())

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/s1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/sessions/s1", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/sessions"},
		{http.MethodDelete, "/api/sessions"},
		{http.MethodPut, "/api/sessions/s1"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}
