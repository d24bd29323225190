package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/gesturegenie/internal/app"
	"github.com/ayusman/gesturegenie/internal/genie"
	"github.com/ayusman/gesturegenie/internal/gesture"
)

var replayCmd = &cobra.Command{
	Use:   "replay <recording>",
	Short: "Feed a landmark recording through the button engine",
	Long: `Reads a JSON lines landmark recording, one hand per line, and prints the
button events each frame produces. With --play the buttons drive the genie and
notes are played at the capture rate.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().Bool("play", false, "Play notes while replaying")
	replayCmd.Flags().Bool("mirror", false, "Mirror landmarks before classification")
	replayCmd.Flags().Float64("width", 0, "Coordinate width to mirror across (defaults to the config)")
	replayCmd.Flags().Int("fps", 0, "Frame rate when playing (defaults to the camera config)")
	replayCmd.Flags().Bool("json", false, "Print a JSON summary instead of per frame events")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	play, _ := flags.GetBool("play")
	jsonOut, _ := flags.GetBool("json")
	mirror, _ := flags.GetBool("mirror")
	mirror = mirror || cfg.Input.Mirror
	width, _ := flags.GetFloat64("width")
	if width <= 0 {
		width = cfg.Input.MirrorWidth
	}
	fps, _ := flags.GetInt("fps")
	if fps <= 0 {
		fps = cfg.Camera.FPS
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	var sink gesture.ButtonSink = &gesture.Recorder{}
	var interval time.Duration

	if play {
		player, err := newPlayer(cfg, logger)
		if err != nil {
			return err
		}
		defer player.Close()

		controller := genie.NewController(genie.NewContourGenerator(cfg.Genie.Seed), player, cfg.Genie.Settings, logger)
		if !jsonOut {
			controller.Subscribe(func(e genie.NoteEvent) {
				if e.Down {
					fmt.Fprintf(out, "  note %d on button %d\n", e.Pitch, e.Slot)
				}
			})
		}
		defer controller.ReleaseAll()
		sink = controller
		interval = time.Second / time.Duration(fps)
	}

	stats, err := app.Replay(f, sink, mirror, width, func(i int, res gesture.Result, err error) {
		if !jsonOut {
			switch {
			case err != nil:
				fmt.Fprintf(out, "frame %d: rejected: %v\n", i, err)
			case len(res.Events) > 0:
				fmt.Fprintf(out, "frame %d: %s thumb=%s %s\n", i, res.Hand, thumbState(res.ThumbOpen), joinEvents(res.Events))
			}
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	})
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(out, "%d frames, %d without a hand, %d rejected, %d button events\n",
		stats.Frames, stats.NoHand, stats.Invalid, stats.Events)
	return nil
}

func thumbState(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}

func joinEvents(events []gesture.Event) string {
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}
