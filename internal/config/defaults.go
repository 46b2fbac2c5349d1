package config

import "vidframes/internal/media/ffmpeg"

const (
	defaultConfigPath   = "~/.config/vidframes/config.toml"
	defaultFFmpeg       = "ffmpeg"
	defaultFFprobe      = "ffprobe"
	defaultProbeTimeout = 60
	defaultDownscale    = 1.0
	defaultCloseTimeout = 10
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	probeCacheFileName  = "probe.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  defaultFFmpeg,
			FFprobeBinary: defaultFFprobe,
			ProbeTimeout:  defaultProbeTimeout,
		},
		Decode: Decode{
			Downscale: defaultDownscale,
		},
		Encode: Encode{
			FPS:          ffmpeg.DefaultFPS,
			CRF:          ffmpeg.DefaultCRF,
			InputPixFmt:  ffmpeg.DefaultInputPixFmt,
			OutputPixFmt: ffmpeg.DefaultOutputPixFmt,
			CloseTimeout: defaultCloseTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
