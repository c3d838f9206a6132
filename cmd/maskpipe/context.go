package main

import (
	"log/slog"
	"strings"
	"sync"

	"maskpipe/internal/config"
	"maskpipe/internal/logging"
	"maskpipe/internal/predictor"
)

type commandContext struct {
	configFlag *string
	quietFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, quietFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		quietFlag:  quietFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) quiet() bool {
	return c.quietFlag != nil && *c.quietFlag
}

// newLogger builds the run logger from config, writing to stdout and the
// per-dataset log file. Quiet mode raises the threshold so only warnings and
// errors reach the console.
func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if c.quiet() {
		level = "warn"
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogFilePath()},
	})
}

func (c *commandContext) newPredictorClient(cfg *config.Config) predictor.Client {
	return predictor.NewCLI(cfg.Predictor.Binary,
		predictor.WithModel(cfg.Predictor.Model),
		predictor.WithDevice(cfg.Predictor.Device))
}
