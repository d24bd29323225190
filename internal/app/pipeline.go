package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/gesturegenie/internal/capture"
	"github.com/ayusman/gesturegenie/internal/detector"
	"github.com/ayusman/gesturegenie/internal/metrics"
	"github.com/ayusman/gesturegenie/internal/server"
	"github.com/ayusman/gesturegenie/internal/store"
)

// ErrAlreadyRunning is returned by Run when the pipeline is already active.
var ErrAlreadyRunning = errors.New("pipeline already running")

// Run drives the pipeline until ctx is cancelled or the frame source runs
// dry. It opens the camera, records a session when a store is configured and
// releases every held button on the way out.
//
// Per tick:
//  1. read a frame and share it with the stream
//  2. detect hands and take the first one
//  3. mirror it if configured
//  4. feed it to the engine, which drives the controller
//  5. publish the classification to clients
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.config.Camera.Close(); err != nil {
			a.logger.Warn("close camera", "err", err)
		}
	}()

	if a.recorder != nil {
		settings := a.config.Controller.Settings()
		sess := &store.Session{
			Source:      a.config.Source,
			NumButtons:  settings.NumButtons,
			Temperature: settings.Temperature,
		}
		if err := a.recorder.Start(sess); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		a.logger.Info("session started", "session", sess.ID)
	}
	defer a.shutdown()

	fps := a.config.Camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	a.logger.Info("pipeline started", "fps", fps)
	wasEnabled := true

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		enabled := a.IsEnabled()
		if !enabled {
			if wasEnabled {
				a.release()
			}
			wasEnabled = false
			continue
		}
		wasEnabled = true

		if err := a.tick(); err != nil {
			if errors.Is(err, capture.ErrNoMoreFrames) || errors.Is(err, detector.ErrEndOfReplay) {
				a.logger.Info("frame source finished")
				return nil
			}
			a.logger.Warn("frame failed", "err", err)
		}
	}
}

// tick processes one frame. Errors that end the run are returned; per-frame
// problems are counted and logged here.
func (a *App) tick() error {
	start := time.Now()

	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		a.observe(metrics.FrameError, 0)
		return err
	}
	a.frames.Set(frame)

	hands, err := a.config.Detector.Detect(frame)
	frame.Close()
	if err != nil {
		if errors.Is(err, detector.ErrEndOfReplay) {
			return err
		}
		if errors.Is(err, detector.ErrInvalidFrame) {
			a.observe(metrics.FrameInvalid, 0)
			a.logger.Debug("rejected frame", "err", err)
			return nil
		}
		a.observe(metrics.FrameError, 0)
		return fmt.Errorf("detect hands: %w", err)
	}

	// No hand keeps the last known state, like a frame the estimator missed.
	if len(hands) == 0 {
		a.observe(metrics.FrameNoHand, 0)
		return nil
	}

	hand := hands[0]
	if a.config.Mirror {
		hand = hand.Mirror(a.config.MirrorWidth)
	}

	result, err := a.engine.ProcessFrame(&hand.Points)
	if err != nil {
		a.observe(metrics.FrameInvalid, 0)
		a.logger.Debug("rejected frame", "err", err)
		return nil
	}
	a.observe(metrics.FrameProcessed, time.Since(start))

	if len(result.Events) > 0 {
		a.logger.Debug("button events", "hand", result.Hand.String(), "events", fmt.Sprint(result.Events))
	}

	if a.config.Hands != nil {
		a.config.Hands.PublishHand(server.HandMessage{
			Hand:      result.Hand.String(),
			ThumbOpen: result.ThumbOpen,
			Pressed:   result.Pressed,
			Points:    hand.Points[:],
			At:        time.Now().UnixMilli(),
		})
	}
	return nil
}

// release lets go of every button the engine and controller hold.
func (a *App) release() {
	a.engine.ReleaseAll()
	a.config.Controller.ReleaseAll()
}

func (a *App) shutdown() {
	a.release()

	if a.recorder != nil {
		if id, err := a.recorder.Stop(); err != nil {
			a.logger.Warn("end session", "session", id, "err", err)
		} else if id != "" {
			a.logger.Info("session ended", "session", id)
		}
	}
	a.logger.Info("pipeline stopped")
}

func (a *App) observe(result string, elapsed time.Duration) {
	if a.config.Metrics != nil {
		a.config.Metrics.ObserveFrame(result, elapsed)
	}
}
