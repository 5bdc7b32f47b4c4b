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
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if strings.TrimSpace(c.Encoding.DefaultFormat) == "" {
		return errors.New("encoding.default_format must be set")
	}
	if strings.TrimSpace(c.Encoding.SourceElement) == "" {
		return errors.New("encoding.source_element must be set")
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if err := ensurePositiveMap(map[string]int{
		"playback.queue_max_time_ms":    c.Playback.QueueMaxTimeMS,
		"playback.queue_max_bytes":      c.Playback.QueueMaxBytes,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Playback.QueueMaxBuffers < 0 {
		return errors.New("playback.queue_max_buffers must be >= 0 (0 disables the buffer count bound)")
	}
	for key, value := range map[string]string{
		"playback.source_element":  c.Playback.SourceElement,
		"playback.decoder_element": c.Playback.DecoderElement,
		"playback.sink_element":    c.Playback.SinkElement,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q (use debug, info, warn, or error)", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
