package config

const (
	defaultWorkDir              = "~/.cache/narrasync/work"
	defaultLogDir               = "~/.local/share/narrasync/logs"
	defaultOutputDir            = "~/Videos/narrasync"
	defaultHistoryDB            = "~/.local/share/narrasync/history.db"
	defaultVoice                = "en-AU-NatashaNeural"
	defaultNarrationBinary      = "edge-tts"
	defaultNarrationRate        = "-4%"
	defaultNarrationVolume      = "+0%"
	defaultSampleRate           = 24000
	defaultNarrationConcurrency = 4
	defaultNarrationTimeout     = 60
	defaultGapEpsilonMS         = 2
	defaultMaxCues              = -1
	defaultMinNarrationMS       = 20
	defaultMinSilenceMS         = 350
	defaultSilenceThresholdDBFS = -40.0
	defaultKeepSilenceMS        = 100
	defaultSilenceWindowMS      = 10
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultRetimeWorkers        = 2
	defaultVideoCodec           = "libx264"
	defaultVideoPreset          = "veryfast"
	defaultVideoCRF             = 20
	defaultAudioCodec           = "aac"
	defaultDriftToleranceMS     = 45
	defaultTempoSpeed           = 1.2
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"

	// MinTempoSpeed and MaxTempoSpeed bound the global tempo multiplier.
	MinTempoSpeed = 0.8
	MaxTempoSpeed = 2.0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
			HistoryDB: defaultHistoryDB,
		},
		Narration: Narration{
			Voice:          defaultVoice,
			Binary:         defaultNarrationBinary,
			Rate:           defaultNarrationRate,
			Volume:         defaultNarrationVolume,
			SampleRate:     defaultSampleRate,
			Concurrency:    defaultNarrationConcurrency,
			TimeoutSeconds: defaultNarrationTimeout,
		},
		Timeline: Timeline{
			SilenceGapEpsilonMS: defaultGapEpsilonMS,
			MaxCues:             defaultMaxCues,
			MinNarrationMS:      defaultMinNarrationMS,
		},
		Silence: Silence{
			MinSilenceMS:  defaultMinSilenceMS,
			ThresholdDBFS: defaultSilenceThresholdDBFS,
			KeepSilenceMS: defaultKeepSilenceMS,
			WindowMS:      defaultSilenceWindowMS,
		},
		Retime: Retime{
			FFmpegBinary:     defaultFFmpegBinary,
			FFprobeBinary:    defaultFFprobeBinary,
			Workers:          defaultRetimeWorkers,
			VideoCodec:       defaultVideoCodec,
			Preset:           defaultVideoPreset,
			CRF:              defaultVideoCRF,
			AudioCodec:       defaultAudioCodec,
			DriftToleranceMS: defaultDriftToleranceMS,
		},
		Tempo: Tempo{
			Speed: defaultTempoSpeed,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
