package app

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/gesturegenie/internal/genie"
	"github.com/ayusman/gesturegenie/internal/store"
)

const (
	recorderBuffer   = 256
	recorderBatch    = 32
	recorderInterval = 250 * time.Millisecond
)

// ErrRecording is returned by Start while a session is already recording.
var ErrRecording = errors.New("session already recording")

// Recorder persists note events of the active session. Events are written in
// batches from a background goroutine so observers never wait on disk.
type Recorder struct {
	store  *store.Store
	logger *slog.Logger

	mu      sync.Mutex
	session string
	events  chan store.NoteEvent
	done    chan struct{}
	dropped int
}

// NewRecorder creates a recorder writing to s.
func NewRecorder(s *store.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, logger: logger}
}

// Start creates sess in the store and begins recording into it.
func (r *Recorder) Start(sess *store.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != "" {
		return ErrRecording
	}
	if err := r.store.Sessions().Create(sess); err != nil {
		return err
	}

	r.session = sess.ID
	r.events = make(chan store.NoteEvent, recorderBuffer)
	r.done = make(chan struct{})
	r.dropped = 0
	go r.drain(r.events, r.done)

	return nil
}

// SessionID returns the recording session, or "" when idle.
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Observe queues e for the active session. It is a genie.Observer and never
// blocks; events that do not fit the buffer are counted and dropped.
func (r *Recorder) Observe(e genie.NoteEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == "" {
		return
	}

	select {
	case r.events <- store.NoteEvent{
		SessionID: r.session,
		Slot:      e.Slot,
		Note:      e.Note,
		Pitch:     e.Pitch,
		Down:      e.Down,
		Source:    string(e.Source),
		At:        e.At,
	}:
	default:
		r.dropped++
	}
}

// Stop flushes pending events and marks the session ended. It returns the
// stopped session ID, or "" if nothing was recording.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	id := r.session
	if id == "" {
		r.mu.Unlock()
		return "", nil
	}
	r.session = ""
	close(r.events)
	done, dropped := r.done, r.dropped
	r.mu.Unlock()

	<-done

	if dropped > 0 {
		r.logger.Warn("dropped note events", "session", id, "count", dropped)
	}
	return id, r.store.Sessions().End(id, time.Now().UTC())
}

func (r *Recorder) drain(events <-chan store.NoteEvent, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(recorderInterval)
	defer ticker.Stop()

	batch := make([]*store.NoteEvent, 0, recorderBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.store.Events().Append(batch...); err != nil {
			r.logger.Error("write note events", "count", len(batch), "err", err)
		}
		batch = make([]*store.NoteEvent, 0, recorderBatch)
	}

	for {
		select {
		case e, ok := <-events:
			if !ok {
				flush()
				return
			}
			batch = append(batch, &e)
			if len(batch) >= recorderBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
