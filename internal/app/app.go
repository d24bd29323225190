// Package app wires capture, detection, the gesture engine and the genie
// controller into the running pipeline.
package app

import (
	"log/slog"
	"sync"

	"github.com/ayusman/gesturegenie/internal/capture"
	"github.com/ayusman/gesturegenie/internal/detector"
	"github.com/ayusman/gesturegenie/internal/genie"
	"github.com/ayusman/gesturegenie/internal/gesture"
	"github.com/ayusman/gesturegenie/internal/metrics"
	"github.com/ayusman/gesturegenie/internal/server"
	"github.com/ayusman/gesturegenie/internal/store"
)

// HandPublisher receives a hand update for every processed frame.
type HandPublisher interface {
	PublishHand(server.HandMessage)
}

// Config holds the collaborators of an App. Camera, Detector and Controller
// are required; the rest may be nil.
type Config struct {
	Camera      capture.Camera
	Detector    detector.Detector
	Controller  *genie.Controller
	Hands       HandPublisher
	Metrics     *metrics.Metrics
	Store       *store.Store // enables session recording
	Source      string       // recorded with each session
	Mirror      bool         // flip landmarks across MirrorWidth first
	MirrorWidth float64
	Logger      *slog.Logger
}

// App is the main application that turns camera frames into notes.
type App struct {
	config   Config
	engine   *gesture.Engine
	frames   *capture.SharedFrame
	recorder *Recorder
	logger   *slog.Logger

	mu      sync.RWMutex
	enabled bool
	running bool
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.MirrorWidth <= 0 {
		config.MirrorWidth = 1
	}
	if config.Source == "" {
		config.Source = store.SourceCamera
	}

	sinks := gesture.MultiSink{config.Controller}
	if config.Metrics != nil {
		sinks = append(sinks, config.Metrics)
		config.Controller.Subscribe(config.Metrics.ObserveNote)
	}

	a := &App{
		config:  config,
		engine:  gesture.NewEngine(sinks),
		frames:  capture.NewSharedFrame(),
		logger:  logger,
		enabled: true,
	}

	if config.Store != nil {
		a.recorder = NewRecorder(config.Store, logger)
		config.Controller.Subscribe(a.recorder.Observe)
	}

	return a
}

// SetEnabled enables or disables gesture detection. Disabling releases every
// pressed button.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning reports whether Run is active.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Frames returns the latest captured frame holder, for the MJPEG stream.
func (a *App) Frames() *capture.SharedFrame {
	return a.frames
}

// Controller returns the genie controller.
func (a *App) Controller() *genie.Controller {
	return a.config.Controller
}

// Recorder returns the session recorder, or nil when recording is off.
func (a *App) Recorder() *Recorder {
	return a.recorder
}

// Close releases the detector and the shared frame.
func (a *App) Close() error {
	err := a.config.Detector.Close()
	if ferr := a.frames.Close(); err == nil {
		err = ferr
	}
	return err
}
