package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.FrameRate <= 0 {
		return errors.New("detection.frame_rate must be positive")
	}
	if c.Detection.SSIMThreshold < 0 || c.Detection.SSIMThreshold > 1 {
		return errors.New("detection.ssim_threshold must be between 0 and 1")
	}
	if c.Detection.RasterWidth <= 0 || c.Detection.RasterHeight <= 0 {
		return errors.New("detection.raster_width and detection.raster_height must be positive")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.MaxTempo < 1.0 {
		return errors.New("audio.max_tempo must be at least 1.0")
	}
	if c.Audio.FadeMillis < 0 {
		return errors.New("audio.fade_millis must be >= 0")
	}
	if c.Audio.MixBatchSize <= 0 {
		return errors.New("audio.mix_batch_size must be positive")
	}
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if strings.TrimSpace(c.Audio.ChannelLayout) == "" {
		return errors.New("audio.channel_layout must be set")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return errors.New("video.width and video.height must be positive")
	}
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be positive")
	}
	if strings.TrimSpace(c.Video.Codec) == "" {
		return errors.New("video.codec must be set")
	}
	if c.Video.TransitionSeconds < 0 {
		return errors.New("video.transition_seconds must be >= 0")
	}
	if c.Video.DurationToleranceSeconds < 0 {
		return errors.New("video.duration_tolerance_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.TimeoutSeconds <= 0 {
		return errors.New("ffmpeg.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
