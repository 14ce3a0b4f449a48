package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTimeline(); err != nil {
		return err
	}
	if err := c.validateSilence(); err != nil {
		return err
	}
	if err := c.validateRetime(); err != nil {
		return err
	}
	if err := ValidateSpeed(c.Tempo.Speed); err != nil {
		return fmt.Errorf("tempo.speed: %w", err)
	}
	return nil
}

// ValidateSpeed checks a global tempo multiplier against the supported range.
func ValidateSpeed(speed float64) error {
	if speed < MinTempoSpeed || speed > MaxTempoSpeed {
		return fmt.Errorf("speed %.2f outside supported range [%.1f, %.1f]", speed, MinTempoSpeed, MaxTempoSpeed)
	}
	return nil
}

func (c *Config) validateTimeline() error {
	if c.Timeline.SilenceGapEpsilonMS < 0 {
		return errors.New("timeline.silence_gap_epsilon_ms must not be negative")
	}
	if c.Timeline.MaxCues == 0 || c.Timeline.MaxCues < -1 {
		return errors.New("timeline.max_cues must be -1 (all cues) or positive")
	}
	if c.Timeline.MinNarrationMS < 0 {
		return errors.New("timeline.min_narration_ms must not be negative")
	}
	return nil
}

func (c *Config) validateSilence() error {
	if c.Silence.MinSilenceMS < 0 {
		return errors.New("silence.min_silence_ms must not be negative")
	}
	if c.Silence.ThresholdDBFS >= 0 {
		return errors.New("silence.threshold_dbfs must be negative")
	}
	return nil
}

func (c *Config) validateRetime() error {
	if c.Retime.CRF < 0 || c.Retime.CRF > 51 {
		return errors.New("retime.crf must be between 0 and 51")
	}
	if c.Retime.DriftToleranceMS < 0 {
		return errors.New("retime.drift_tolerance_ms must not be negative")
	}
	return nil
}
