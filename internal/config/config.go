// Package config loads and validates the genie configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/gesturegenie/internal/capture"
	"github.com/ayusman/gesturegenie/internal/detector"
	"github.com/ayusman/gesturegenie/internal/genie"
	"github.com/ayusman/gesturegenie/internal/logging"
)

// Player kinds.
const (
	PlayerLog  = "log"
	PlayerMIDI = "midi"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig    `toml:"server" yaml:"server" json:"server"`
	Storage  StorageConfig   `toml:"storage" yaml:"storage" json:"storage"`
	Camera   capture.Config  `toml:"camera" yaml:"camera" json:"camera"`
	Detector detector.Config `toml:"detector" yaml:"detector" json:"detector"`
	Input    InputConfig     `toml:"input" yaml:"input" json:"input"`
	Genie    GenieConfig     `toml:"genie" yaml:"genie" json:"genie"`
	Output   OutputConfig    `toml:"output" yaml:"output" json:"output"`
	Logging  LoggingConfig   `toml:"logging" yaml:"logging" json:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr      string `toml:"addr" yaml:"addr" json:"addr"`
	StaticDir string `toml:"static_dir" yaml:"static_dir" json:"static_dir"`
}

// StorageConfig configures the session database.
type StorageConfig struct {
	Path string `toml:"path" yaml:"path" json:"path"`
	// Record turns session recording on.
	Record bool `toml:"record" yaml:"record" json:"record"`
}

// InputConfig controls how landmarks are interpreted.
type InputConfig struct {
	// Mirror flips landmarks horizontally before classification, for
	// cameras that deliver an unmirrored image.
	Mirror bool `toml:"mirror" yaml:"mirror" json:"mirror"`
	// MirrorWidth is the coordinate width to mirror across. MediaPipe
	// coordinates are normalized, so the default is 1.
	MirrorWidth float64 `toml:"mirror_width" yaml:"mirror_width" json:"mirror_width"`
}

// GenieConfig configures the note generator and controller.
type GenieConfig struct {
	genie.Settings `yaml:",inline"`
	// Seed makes generated melodies reproducible. 0 uses a fixed seed.
	Seed int64 `toml:"seed" yaml:"seed" json:"seed"`
	// MIDIIn plays buttons from a MIDI keyboard when Enabled.
	MIDIIn genie.MIDIInConfig `toml:"midi_in" yaml:"midi_in" json:"midi_in"`
}

// OutputConfig selects the player.
type OutputConfig struct {
	Player string           `toml:"player" yaml:"player" json:"player"`
	MIDI   genie.MIDIConfig `toml:"midi" yaml:"midi" json:"midi"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	Format string `toml:"format" yaml:"format" json:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "localhost:8080",
		},
		Storage: StorageConfig{
			Path:   filepath.Join(DataDir(), "genie.db"),
			Record: true,
		},
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Input: InputConfig{
			MirrorWidth: 1,
		},
		Genie: GenieConfig{
			Settings: genie.DefaultSettings(),
			MIDIIn:   genie.DefaultMIDIInConfig(),
		},
		Output: OutputConfig{
			Player: PlayerLog,
			MIDI:   genie.DefaultMIDIConfig(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// DataDir is where the database lives by default.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gesturegenie"
	}
	return filepath.Join(home, ".gesturegenie")
}

// Load reads a config file, decoding by extension. A missing file yields the
// defaults. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch ext := filepath.Ext(path); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// Validate checks the configuration and normalizes values in place.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be within [0, 1], got %v", c.Detector.MinConfidence)
	}
	if c.Input.Mirror && c.Input.MirrorWidth <= 0 {
		return fmt.Errorf("input.mirror_width must be positive, got %v", c.Input.MirrorWidth)
	}
	if err := c.Genie.Settings.Validate(); err != nil {
		return fmt.Errorf("genie: %w", err)
	}
	switch c.Output.Player {
	case PlayerLog, PlayerMIDI:
	default:
		return fmt.Errorf("output.player must be %q or %q, got %q", PlayerLog, PlayerMIDI, c.Output.Player)
	}
	if c.Genie.MIDIIn.Enabled && c.Genie.MIDIIn.BaseNote > 127-7 {
		return fmt.Errorf("genie.midi_in.base_note must be at most 120, got %d", c.Genie.MIDIIn.BaseNote)
	}
	if c.Output.MIDI.Channel > 15 {
		return fmt.Errorf("output.midi.channel must be within [0, 15], got %d", c.Output.MIDI.Channel)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	switch c.Logging.Format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q", logging.FormatText, logging.FormatJSON, c.Logging.Format)
	}
	return nil
}
