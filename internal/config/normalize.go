package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNarration()
	c.normalizeSilence()
	c.normalizeRetime()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeNarration() {
	c.Narration.Voice = strings.TrimSpace(c.Narration.Voice)
	if value, ok := os.LookupEnv("NARRASYNC_VOICE"); ok && strings.TrimSpace(value) != "" {
		c.Narration.Voice = strings.TrimSpace(value)
	}
	if c.Narration.Voice == "" {
		c.Narration.Voice = defaultVoice
	}
	c.Narration.Binary = strings.TrimSpace(c.Narration.Binary)
	if c.Narration.Binary == "" {
		c.Narration.Binary = defaultNarrationBinary
	}
	c.Narration.Rate = strings.TrimSpace(c.Narration.Rate)
	if c.Narration.Rate == "" {
		c.Narration.Rate = defaultNarrationRate
	}
	c.Narration.Volume = strings.TrimSpace(c.Narration.Volume)
	if c.Narration.Volume == "" {
		c.Narration.Volume = defaultNarrationVolume
	}
	if c.Narration.SampleRate <= 0 {
		c.Narration.SampleRate = defaultSampleRate
	}
	if c.Narration.Concurrency <= 0 {
		c.Narration.Concurrency = 1
	}
	if c.Narration.TimeoutSeconds <= 0 {
		c.Narration.TimeoutSeconds = defaultNarrationTimeout
	}
}

func (c *Config) normalizeSilence() {
	if c.Silence.WindowMS <= 0 {
		c.Silence.WindowMS = defaultSilenceWindowMS
	}
	if c.Silence.KeepSilenceMS < 0 {
		c.Silence.KeepSilenceMS = 0
	}
}

func (c *Config) normalizeRetime() {
	c.Retime.FFmpegBinary = strings.TrimSpace(c.Retime.FFmpegBinary)
	if c.Retime.FFmpegBinary == "" {
		c.Retime.FFmpegBinary = defaultFFmpegBinary
	}
	c.Retime.FFprobeBinary = strings.TrimSpace(c.Retime.FFprobeBinary)
	if c.Retime.FFprobeBinary == "" {
		c.Retime.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Retime.Workers <= 0 {
		c.Retime.Workers = 1
	}
	c.Retime.VideoCodec = strings.TrimSpace(c.Retime.VideoCodec)
	if c.Retime.VideoCodec == "" {
		c.Retime.VideoCodec = defaultVideoCodec
	}
	c.Retime.Preset = strings.TrimSpace(c.Retime.Preset)
	c.Retime.AudioCodec = strings.TrimSpace(c.Retime.AudioCodec)
	if c.Retime.AudioCodec == "" {
		c.Retime.AudioCodec = defaultAudioCodec
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
