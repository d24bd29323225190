package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/gesturegenie/internal/app"
	"github.com/ayusman/gesturegenie/internal/capture"
	"github.com/ayusman/gesturegenie/internal/config"
	"github.com/ayusman/gesturegenie/internal/detector"
	"github.com/ayusman/gesturegenie/internal/genie"
	"github.com/ayusman/gesturegenie/internal/metrics"
	"github.com/ayusman/gesturegenie/internal/server"
	"github.com/ayusman/gesturegenie/internal/server/api"
	"github.com/ayusman/gesturegenie/internal/store"
	"github.com/ayusman/gesturegenie/internal/tray"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the camera pipeline and the web UI",
	Long: `Starts the hand tracking pipeline and the HTTP server. The web UI receives
notes and landmarks over a websocket and can play the genie from the keyboard.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "HTTP listen address")
	serveCmd.Flags().String("static", "", "Directory of the web UI")
	serveCmd.Flags().Bool("tray", false, "Show a system tray menu")
	serveCmd.Flags().String("replay", "", "Drive the pipeline from a landmark recording instead of the camera")
	serveCmd.Flags().Bool("midi", false, "Play notes on a MIDI output")
	serveCmd.Flags().Bool("midi-in", false, "Press buttons from a MIDI keyboard")
	serveCmd.Flags().Bool("no-record", false, "Do not record the session")
	serveCmd.Flags().Bool("mirror", false, "Mirror landmarks before classification")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("static") {
		cfg.Server.StaticDir, _ = flags.GetString("static")
	}
	if midiOut, _ := flags.GetBool("midi"); midiOut {
		cfg.Output.Player = config.PlayerMIDI
	}
	if midiIn, _ := flags.GetBool("midi-in"); midiIn {
		cfg.Genie.MIDIIn.Enabled = true
	}
	if noRecord, _ := flags.GetBool("no-record"); noRecord {
		cfg.Storage.Record = false
	}
	if mirror, _ := flags.GetBool("mirror"); mirror {
		cfg.Input.Mirror = true
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir()
	}
	replayPath, _ := flags.GetString("replay")
	withTray, _ := flags.GetBool("tray")

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// Ports close before the driver.
	if cfg.Output.Player == config.PlayerMIDI || cfg.Genie.MIDIIn.Enabled {
		defer midi.CloseDriver()
	}
	player, err := newPlayer(cfg, logger)
	if err != nil {
		return err
	}
	defer player.Close()

	controller := genie.NewController(
		genie.NewContourGenerator(cfg.Genie.Seed),
		player,
		persistedSettings(st, cfg.Genie.Settings, logger),
		logger.With("component", "genie"),
	)

	if cfg.Genie.MIDIIn.Enabled {
		in, err := genie.OpenMIDIInput(controller, cfg.Genie.MIDIIn, logger.With("component", "midi-in"))
		if err != nil {
			logger.Warn("MIDI keyboard disabled", "err", err)
		} else {
			defer in.Close()
		}
	}

	m := metrics.New()
	hub := server.NewHub(controller, m, logger.With("component", "events"))
	controller.Subscribe(hub.PublishNote)

	camera, det, source, err := newSource(cfg, replayPath, logger)
	if err != nil {
		return err
	}

	appCfg := app.Config{
		Camera:      camera,
		Detector:    det,
		Controller:  controller,
		Hands:       hub,
		Metrics:     m,
		Source:      source,
		Mirror:      cfg.Input.Mirror,
		MirrorWidth: cfg.Input.MirrorWidth,
		Logger:      logger.With("component", "pipeline"),
	}
	if cfg.Storage.Record {
		appCfg.Store = st
	}
	a := app.New(appCfg)
	defer a.Close()

	srv := server.New(server.Config{
		StaticDir:  cfg.Server.StaticDir,
		Store:      st,
		Controller: controller,
		Hub:        hub,
		Frames:     a.Frames(),
		Metrics:    m.Handler(),
		Logger:     logger.With("component", "server"),
	})

	if path, _ := flags.GetString("config"); path != "" {
		w, err := config.Watch(path, logger)
		if err != nil {
			logger.Warn("config reload disabled", "err", err)
		} else {
			defer w.Close()
			w.OnChange(func(c *config.Config) {
				if err := controller.UpdateSettings(c.Genie.Settings); err != nil {
					logger.Warn("reloaded genie settings rejected", "err", err)
					return
				}
				logger.Info("genie settings reloaded")
			})
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var t *tray.Tray
	if withTray {
		t = newTray(a, controller, cfg.Server.Addr, stop)
	}

	logger.Info("starting", "addr", cfg.Server.Addr, "source", source, "player", cfg.Output.Player)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		// A replay that runs dry leaves the server up until interrupted.
		return a.Run(gctx)
	})

	if t != nil {
		go func() {
			<-gctx.Done()
			t.Quit()
		}()
		// systray must own the main goroutine.
		t.Run()
		stop()
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stopped")
	return nil
}

// persistedSettings overlays settings saved through the API on the
// configured ones.
func persistedSettings(st *store.Store, settings genie.Settings, logger *slog.Logger) genie.Settings {
	saved := settings
	err := st.Settings().GetJSON(api.SettingsKey, &saved)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return settings
	case err != nil:
		logger.Warn("ignoring saved genie settings", "err", err)
		return settings
	}
	if err := saved.Validate(); err != nil {
		logger.Warn("ignoring saved genie settings", "err", err)
		return settings
	}
	return saved
}

func newPlayer(cfg *config.Config, logger *slog.Logger) (genie.Player, error) {
	if cfg.Output.Player != config.PlayerMIDI {
		return genie.NewLogPlayer(logger.With("component", "player")), nil
	}
	p, err := genie.OpenMIDIPlayer(cfg.Output.MIDI)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// newSource picks the capture device and detector. A replay needs no camera
// image, so blank frames pace it at the configured rate.
func newSource(cfg *config.Config, replayPath string, logger *slog.Logger) (capture.Camera, detector.Detector, string, error) {
	if replayPath != "" {
		det, err := detector.OpenReplay(replayPath, false)
		if err != nil {
			return nil, nil, "", err
		}
		camera := capture.NewBlankCamera(cfg.Camera.Width, cfg.Camera.Height, 0)
		camera.SetFPS(cfg.Camera.FPS)
		return camera, det, store.SourceReplay, nil
	}

	det, err := detector.NewMediaPipeDetector(cfg.Detector, logger.With("component", "detector"))
	if err != nil {
		return nil, nil, "", fmt.Errorf("create detector: %w", err)
	}
	return capture.NewCamera(cfg.Camera), det, store.SourceCamera, nil
}

func newTray(a *app.App, controller *genie.Controller, addr string, quit func()) *tray.Tray {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnReset(controller.Reset)
	t.OnOpen(func() {
		if err := openBrowser("http://" + addr); err != nil {
			slog.Warn("open browser", "err", err)
		}
	})
	t.OnQuit(quit)
	controller.Subscribe(t.ShowNote)
	return t
}
