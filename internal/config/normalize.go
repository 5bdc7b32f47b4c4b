package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDrive()
	c.normalizeEncoding()
	c.normalizePlayback()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDrive() {
	c.Drive.Device = strings.TrimSpace(c.Drive.Device)
	if c.Drive.Device == "" {
		if value, ok := os.LookupEnv("CDRIP_DEVICE"); ok {
			c.Drive.Device = strings.TrimSpace(value)
		}
	}
	if c.Drive.LockTimeout < 0 {
		c.Drive.LockTimeout = 0
	}
}

func (c *Config) normalizeEncoding() {
	c.Encoding.DefaultFormat = strings.ToLower(strings.TrimSpace(c.Encoding.DefaultFormat))
	if c.Encoding.DefaultFormat == "" {
		c.Encoding.DefaultFormat = defaultFormat
	}
	c.Encoding.SourceElement = strings.TrimSpace(c.Encoding.SourceElement)
	if c.Encoding.SourceElement == "" {
		c.Encoding.SourceElement = defaultRipSourceElement
	}
}

func (c *Config) normalizePlayback() {
	c.Playback.SourceElement = strings.TrimSpace(c.Playback.SourceElement)
	if c.Playback.SourceElement == "" {
		c.Playback.SourceElement = defaultPlaybackSourceElement
	}
	c.Playback.DecoderElement = strings.TrimSpace(c.Playback.DecoderElement)
	if c.Playback.DecoderElement == "" {
		c.Playback.DecoderElement = defaultPlaybackDecoderElement
	}
	c.Playback.SinkElement = strings.TrimSpace(c.Playback.SinkElement)
	if c.Playback.SinkElement == "" {
		c.Playback.SinkElement = defaultPlaybackSinkElement
	}
	if c.Playback.QueueMaxTimeMS <= 0 {
		c.Playback.QueueMaxTimeMS = defaultPlaybackQueueMaxTimeMS
	}
	if c.Playback.QueueMaxBytes <= 0 {
		c.Playback.QueueMaxBytes = defaultPlaybackQueueMaxBytes
	}
	if c.Playback.QueueMaxBuffers < 0 {
		c.Playback.QueueMaxBuffers = defaultPlaybackQueueMaxBuffers
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("CDRIP_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
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
