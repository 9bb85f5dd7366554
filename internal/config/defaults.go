package config

const (
	defaultWorkDir   = "~/.local/share/slidesync/work"
	defaultOutputDir = "~/.local/share/slidesync/output"
	defaultLogDir    = "~/.local/share/slidesync/logs"

	defaultFrameRate     = 1
	defaultSSIMThreshold = 0.40
	defaultRasterWidth   = 960
	defaultRasterHeight  = 540

	defaultMaxTempo      = 1.15
	defaultFadeMillis    = 100
	defaultMixBatchSize  = 25
	defaultSampleRate    = 44100
	defaultChannelLayout = "stereo"
	defaultAudioBitrate  = "128k"

	defaultVideoWidth        = 1920
	defaultVideoHeight       = 1080
	defaultVideoFPS          = 30
	defaultVideoCodec        = "libx264"
	defaultVideoCRF          = 18
	defaultVideoPreset       = "medium"
	defaultTransitionSeconds = 0.5
	defaultDurationTolerance = 2.0

	defaultFFmpegTimeoutSeconds = 600

	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Detection: Detection{
			FrameRate:     defaultFrameRate,
			SSIMThreshold: defaultSSIMThreshold,
			RasterWidth:   defaultRasterWidth,
			RasterHeight:  defaultRasterHeight,
		},
		Audio: Audio{
			MaxTempo:      defaultMaxTempo,
			FadeMillis:    defaultFadeMillis,
			MixBatchSize:  defaultMixBatchSize,
			SampleRate:    defaultSampleRate,
			ChannelLayout: defaultChannelLayout,
			Bitrate:       defaultAudioBitrate,
		},
		Video: Video{
			Width:                    defaultVideoWidth,
			Height:                   defaultVideoHeight,
			FPS:                      defaultVideoFPS,
			Codec:                    defaultVideoCodec,
			CRF:                      defaultVideoCRF,
			Preset:                   defaultVideoPreset,
			TransitionSeconds:        defaultTransitionSeconds,
			DurationToleranceSeconds: defaultDurationTolerance,
		},
		FFmpeg: FFmpeg{
			Binary:         "ffmpeg",
			ProbeBinary:    "ffprobe",
			TimeoutSeconds: defaultFFmpegTimeoutSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
