package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cdrip/internal/config"
	"cdrip/internal/disc"
	"cdrip/internal/encoding"
	"cdrip/internal/engine"
	"cdrip/internal/engine/gstreamer"
	"cdrip/internal/history"
	"cdrip/internal/logging"
	"cdrip/internal/notifications"
	"cdrip/internal/transcode"
)

// engineOpener is replaced in tests with an in-memory engine.
var engineOpener = gstreamer.Open

type commandContext struct {
	configFlag *string
	levelFlag  *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, levelFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		levelFlag:  levelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.configPath, c.configExists = resolved, exists
		if c.levelFlag != nil && strings.TrimSpace(*c.levelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.levelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// configSource reports the config file that was resolved and whether it existed.
func (c *commandContext) configSource() (string, bool) {
	c.ensureConfig()
	return c.configPath, c.configExists
}

func (c *commandContext) baseLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			fallback, fbErr := logging.New(logging.Options{Level: "info", Format: "console"})
			if fbErr != nil {
				fallback = logging.NewNop()
			}
			fallback.Warn("falling back to console logging", logging.Error(err))
			logger = fallback
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openEngine() (engine.Engine, error) {
	eng, err := engineOpener()
	if err != nil {
		return nil, fmt.Errorf("open media engine: %w", err)
	}
	return eng, nil
}

// openHistory returns nil without error when history is disabled.
func (c *commandContext) openHistory() (*history.Store, error) {
	cfg := c.configValue()
	if cfg == nil || !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open rip history: %w", err)
	}
	return store, nil
}

func (c *commandContext) driveLock() *disc.DriveLock {
	return disc.NewDriveLock(c.configValue().DriveLockPath())
}

// newManager wires the transcode manager with every configured collaborator.
// The returned cleanup closes the history store.
func (c *commandContext) newManager(eng engine.Engine) (*transcode.Manager, func(), error) {
	cfg := c.configValue()
	logger := c.baseLogger()

	opts := []transcode.Option{
		transcode.WithNotifier(notifications.NewService(cfg)),
		transcode.WithEjector(disc.NewEjector()),
		transcode.WithDriveLock(c.driveLock()),
	}
	cleanup := func() {}
	store, err := c.openHistory()
	if err != nil {
		return nil, nil, err
	}
	if store != nil {
		opts = append(opts, transcode.WithRecorder(store))
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("close history failed", logging.Error(err))
			}
		}
	}

	encoder := encoding.NewEncoder(eng, cfg, logger)
	return transcode.NewManager(cfg, encoder, logger, opts...), cleanup, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
