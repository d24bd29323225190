// Package metrics exposes pipeline counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/gesturegenie/internal/genie"
	"github.com/ayusman/gesturegenie/internal/gesture"
)

// Frame results.
const (
	FrameProcessed = "processed"
	FrameNoHand    = "no_hand"
	FrameInvalid   = "invalid"
	FrameError     = "error"
)

// Metrics holds the application's collectors on a private registry.
// It also serves as a button sink so button transitions are counted where
// they are emitted.
type Metrics struct {
	registry *prometheus.Registry

	frames         *prometheus.CounterVec
	frameDuration  prometheus.Histogram
	buttonEvents   *prometheus.CounterVec
	notes          *prometheus.CounterVec
	pressedButtons prometheus.Gauge
	websocketConns prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "genie",
				Name:      "frames_total",
				Help:      "Landmark frames handled by the pipeline, by result.",
			},
			[]string{"result"},
		),
		frameDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "genie",
				Name:      "frame_duration_seconds",
				Help:      "Time from frame capture to button events.",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		buttonEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "genie",
				Name:      "button_events_total",
				Help:      "Button transitions emitted by the gesture engine.",
			},
			[]string{"transition", "kind"},
		),
		notes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "genie",
				Name:      "notes_total",
				Help:      "Notes started, by input source.",
			},
			[]string{"source"},
		),
		pressedButtons: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "genie",
				Name:      "pressed_buttons",
				Help:      "Finger slots currently pressed.",
			},
		),
		websocketConns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "genie",
				Name:      "websocket_clients",
				Help:      "Connected event stream clients.",
			},
		),
	}

	m.registry.MustRegister(
		m.frames,
		m.frameDuration,
		m.buttonEvents,
		m.notes,
		m.pressedButtons,
		m.websocketConns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFrame counts a frame and, for processed frames, its latency.
func (m *Metrics) ObserveFrame(result string, elapsed time.Duration) {
	m.frames.WithLabelValues(result).Inc()
	if result == FrameProcessed {
		m.frameDuration.Observe(elapsed.Seconds())
	}
}

// ButtonDown implements gesture.ButtonSink.
func (m *Metrics) ButtonDown(slot int) {
	m.buttonEvents.WithLabelValues(string(gesture.Down), kind(slot)).Inc()
	if slot < gesture.ChordOffset {
		m.pressedButtons.Inc()
	}
}

// ButtonUp implements gesture.ButtonSink. Chord releases are sent even when
// the chord was never pressed, so the gauge only follows base slots.
func (m *Metrics) ButtonUp(slot int) {
	m.buttonEvents.WithLabelValues(string(gesture.Up), kind(slot)).Inc()
	if slot < gesture.ChordOffset {
		m.pressedButtons.Dec()
	}
}

// ObserveNote counts started notes. It has the genie.Observer signature.
func (m *Metrics) ObserveNote(e genie.NoteEvent) {
	if e.Down {
		m.notes.WithLabelValues(string(e.Source)).Inc()
	}
}

// ClientConnected and ClientDisconnected track websocket clients.
func (m *Metrics) ClientConnected()    { m.websocketConns.Inc() }
func (m *Metrics) ClientDisconnected() { m.websocketConns.Dec() }

func kind(slot int) string {
	if slot >= gesture.ChordOffset {
		return "chord"
	}
	return "base"
}
