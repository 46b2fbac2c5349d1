package config

import (
	"errors"
	"fmt"
	"math"

	"vidframes/internal/media/ffmpeg"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateDecode(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.ProbeTimeout < 0 {
		return errors.New("ffmpeg.probe_timeout must be zero or positive")
	}
	return nil
}

func (c *Config) validateDecode() error {
	if c.Decode.Downscale <= 0 || math.IsNaN(c.Decode.Downscale) || math.IsInf(c.Decode.Downscale, 0) {
		return fmt.Errorf("decode.downscale must be positive, got %v", c.Decode.Downscale)
	}
	return nil
}

func (c *Config) validateEncode() error {
	if c.Encode.FPS <= 0 {
		return errors.New("encode.fps must be positive")
	}
	if c.Encode.CRF < 0 || c.Encode.CRF > 51 {
		return errors.New("encode.crf must be between 0 and 51")
	}
	if _, ok := ffmpeg.PackedChannels(c.Encode.InputPixFmt); !ok {
		return fmt.Errorf("encode.input_pix_fmt %q is not a packed 8-bit format", c.Encode.InputPixFmt)
	}
	if c.Encode.OutputPixFmt == "" {
		return errors.New("encode.output_pix_fmt must be set")
	}
	if c.Encode.CloseTimeout <= 0 {
		return errors.New("encode.close_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
