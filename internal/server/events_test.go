package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/gesturegenie/internal/detector"
	"github.com/ayusman/gesturegenie/internal/genie"
	"github.com/ayusman/gesturegenie/internal/logging"
)

type recordedKey struct {
	key    string
	down   bool
	repeat bool
}

type keyRecorder struct {
	mu   sync.Mutex
	keys []recordedKey
	got  chan struct{}
}

func newKeyRecorder() *keyRecorder {
	return &keyRecorder{got: make(chan struct{}, 16)}
}

func (k *keyRecorder) HandleKey(key string, down, repeat bool) {
	k.mu.Lock()
	k.keys = append(k.keys, recordedKey{key, down, repeat})
	k.mu.Unlock()
	k.got <- struct{}{}
}

type clientCounter struct {
	mu      sync.Mutex
	current int
}

func (c *clientCounter) ClientConnected()    { c.mu.Lock(); c.current++; c.mu.Unlock() }
func (c *clientCounter) ClientDisconnected() { c.mu.Lock(); c.current--; c.mu.Unlock() }

func (c *clientCounter) value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishNote(t *testing.T) {
	counter := &clientCounter{}
	hub := NewHub(nil, counter, logging.NewNop())
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return hub.Clients() == 1 })
	if counter.value() != 1 {
		t.Errorf("observer saw %d clients, want 1", counter.value())
	}

	at := time.UnixMilli(1_700_000_000_123)
	hub.PublishNote(genie.NoteEvent{Slot: 4, Note: 40, Pitch: 61, Down: true, Source: genie.SourceGesture, At: at})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg NoteMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	want := NoteMessage{Type: TypeNote, Slot: 4, Note: 40, Pitch: 61, Down: true, Source: genie.SourceGesture, At: at.UnixMilli()}
	if msg != want {
		t.Errorf("message = %+v, want %+v", msg, want)
	}
}

func TestHub_PublishHand(t *testing.T) {
	hub := NewHub(nil, nil, logging.NewNop())
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return hub.Clients() == 1 })

	raised := detector.RaisedHandLandmarks()
	hub.PublishHand(HandMessage{Hand: "right", Pressed: [4]bool{true}, Points: raised.Points[:], At: 5})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var msg HandMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != TypeHand || msg.Hand != "right" || !msg.Pressed[0] {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(msg.Points) != detector.NumLandmarks {
		t.Errorf("got %d points, want %d", len(msg.Points), detector.NumLandmarks)
	}
}

func TestHub_KeyMessages(t *testing.T) {
	keys := newKeyRecorder()
	hub := NewHub(keys, nil, logging.NewNop())
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dial(t, ts)

	messages := []string{
		`not json`,
		`{"type":"other","key":"a"}`,
		`{"type":"key","key":""}`,
		`{"type":"key","key":"a","down":true,"repeat":false}`,
		`{"type":"key","key":"a","down":false}`,
	}
	for _, m := range messages {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			t.Fatalf("write %q: %v", m, err)
		}
	}

	for i := 0; i < 2; i++ {
		select {
		case <-keys.got:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for key")
		}
	}

	keys.mu.Lock()
	defer keys.mu.Unlock()
	want := []recordedKey{{"a", true, false}, {"a", false, false}}
	if len(keys.keys) != len(want) || keys.keys[0] != want[0] || keys.keys[1] != want[1] {
		t.Errorf("keys = %+v, want %+v", keys.keys, want)
	}
}

func TestHub_Disconnect(t *testing.T) {
	counter := &clientCounter{}
	hub := NewHub(nil, counter, logging.NewNop())
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return hub.Clients() == 1 })

	conn.Close()
	waitFor(t, "client removal", func() bool { return hub.Clients() == 0 })
	waitFor(t, "observer update", func() bool { return counter.value() == 0 })

	// Publishing with no clients is a no-op.
	hub.PublishNote(genie.NoteEvent{Slot: 1, Down: true})
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(nil, nil, logging.NewNop())
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return hub.Clients() == 1 })

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
}
