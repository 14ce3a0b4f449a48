// Package config loads, normalizes, and validates narrasync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// NARRASYNC_VOICE (optionally sourced from a .env file). The Config type
// centralizes every knob the pipeline and CLI need: narration voice and
// provider options, timeline thresholds, silence trimming, rendering, and the
// global tempo.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
