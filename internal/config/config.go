package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	OutputDir string `toml:"output_dir"`
	HistoryDB string `toml:"history_db"`
}

// Narration configures the speech synthesis provider.
type Narration struct {
	Voice          string `toml:"voice"`
	Binary         string `toml:"binary"`
	Rate           string `toml:"rate"`
	Volume         string `toml:"volume"`
	SampleRate     int    `toml:"sample_rate"`
	Concurrency    int    `toml:"concurrency"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeline contains the segment construction thresholds.
type Timeline struct {
	// SilenceGapEpsilonMS is the largest inter-cue gap absorbed without a silent segment.
	SilenceGapEpsilonMS int `toml:"silence_gap_epsilon_ms"`
	// MaxCues limits how many cues are processed; -1 processes all of them.
	MaxCues int `toml:"max_cues"`
	// MinNarrationMS is the shortest trimmed narration accepted as speech.
	// Shorter clips are replaced by a silent filler over the cue's slot.
	MinNarrationMS int `toml:"min_narration_ms"`
}

// Silence configures narration silence trimming.
type Silence struct {
	MinSilenceMS  int     `toml:"min_silence_ms"`
	ThresholdDBFS float64 `toml:"threshold_dbfs"`
	KeepSilenceMS int     `toml:"keep_silence_ms"`
	WindowMS      int     `toml:"window_ms"`
}

// Retime configures segment rendering.
type Retime struct {
	FFmpegBinary     string `toml:"ffmpeg_binary"`
	FFprobeBinary    string `toml:"ffprobe_binary"`
	Workers          int    `toml:"workers"`
	VideoCodec       string `toml:"video_codec"`
	Preset           string `toml:"preset"`
	CRF              int    `toml:"crf"`
	AudioCodec       string `toml:"audio_codec"`
	DriftToleranceMS int    `toml:"drift_tolerance_ms"`
}

// Tempo configures the final global speed pass.
type Tempo struct {
	Speed float64 `toml:"speed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for narrasync.
//
// Configuration sections by subsystem:
//   - Paths: work, log, and output directories plus the run history database
//   - Narration: voice and edge-tts provider options
//   - Timeline: gap epsilon, cue cap, and the minimum accepted narration
//   - Silence: silence trimming applied to every narration clip
//   - Retime: ffmpeg binaries, encoder settings, and drift tolerance
//   - Tempo: the global speed multiplier
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Narration Narration `toml:"narration"`
	Timeline  Timeline  `toml:"timeline"`
	Silence   Silence   `toml:"silence"`
	Retime    Retime    `toml:"retime"`
	Tempo     Tempo     `toml:"tempo"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/narrasync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory is
// loaded first so environment fallbacks can come from it.
func Load(path string) (*Config, string, bool, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("narrasync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work and log directories. The output directory
// is only needed by batch runs and is created on demand there.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.HistoryDB); strings.TrimSpace(c.Paths.HistoryDB) != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// GapEpsilon returns the silence gap epsilon as a duration.
func (c *Config) GapEpsilon() time.Duration {
	return time.Duration(c.Timeline.SilenceGapEpsilonMS) * time.Millisecond
}

// MinNarration returns the minimum accepted narration length as a duration.
func (c *Config) MinNarration() time.Duration {
	return time.Duration(c.Timeline.MinNarrationMS) * time.Millisecond
}

// NarrationTimeout bounds a single synthesis request.
func (c *Config) NarrationTimeout() time.Duration {
	return time.Duration(c.Narration.TimeoutSeconds) * time.Second
}

// DriftTolerance returns the per-segment audio/video drift tolerance.
func (c *Config) DriftTolerance() time.Duration {
	return time.Duration(c.Retime.DriftToleranceMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
