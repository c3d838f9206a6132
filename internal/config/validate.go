package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var borderColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.Name == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/maskpipe/config.toml"
		}
		return fmt.Errorf("dataset.name is required. Edit %s (create with 'maskpipe config init')", defaultPath)
	}
	if strings.ContainsAny(c.Dataset.Name, "/\\") {
		return fmt.Errorf("dataset.name %q must not contain path separators", c.Dataset.Name)
	}
	if !strings.HasPrefix(c.Dataset.IndexSuffix, "_") {
		return fmt.Errorf("dataset.index_suffix %q must start with an underscore", c.Dataset.IndexSuffix)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InputRoot == "" {
		return errors.New("paths.input_root must be set")
	}
	if c.Paths.OutputRoot == "" {
		return errors.New("paths.output_root must be set")
	}
	return nil
}

func (c *Config) validatePreview() error {
	if c.Preview.FrameCount < 1 {
		return errors.New("preview.frame_count must be at least 1")
	}
	if c.Preview.DimAlpha < 0 || c.Preview.DimAlpha >= 1 {
		return errors.New("preview.dim_alpha must be in [0, 1)")
	}
	if c.Preview.BorderColor != "" && !borderColorPattern.MatchString(c.Preview.BorderColor) {
		return fmt.Errorf("preview.border_color %q must look like #rrggbb", c.Preview.BorderColor)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
