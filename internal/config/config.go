package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains root directory configuration.
type Paths struct {
	InputRoot  string `toml:"input_root"`
	OutputRoot string `toml:"output_root"`
	LogDir     string `toml:"log_dir"`
}

// Dataset names the frame set being processed and controls indexing.
type Dataset struct {
	Name        string `toml:"name"`
	IndexSuffix string `toml:"index_suffix"`
	AutoIndex   bool   `toml:"auto_index"`
}

// Predictor configures the external segmentation runner.
type Predictor struct {
	Binary string `toml:"binary"`
	Model  string `toml:"model"`
	Device string `toml:"device"`
}

// Preview configures the bounded sampled run used for human review.
type Preview struct {
	FrameCount int `toml:"frame_count"`
	// DimAlpha is the fraction by which background pixels are darkened in
	// overlay visualizations. 0.6 means 60% darker.
	DimAlpha float64 `toml:"dim_alpha"`
	// BorderColor optionally outlines the mask in overlays, as "#rrggbb".
	// Empty disables the border.
	BorderColor string `toml:"border_color"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for maskpipe.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Dataset   Dataset   `toml:"dataset"`
	Predictor Predictor `toml:"predictor"`
	Preview   Preview   `toml:"preview"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/maskpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("maskpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.InputRoot, &c.Paths.OutputRoot, &c.Paths.LogDir} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}
	c.Dataset.Name = strings.TrimSpace(c.Dataset.Name)
	c.Dataset.IndexSuffix = strings.TrimSpace(c.Dataset.IndexSuffix)
	if c.Dataset.IndexSuffix == "" {
		c.Dataset.IndexSuffix = defaultIndexSuffix
	}
	c.Predictor.Binary = strings.TrimSpace(c.Predictor.Binary)
	if c.Predictor.Binary == "" {
		c.Predictor.Binary = defaultPredictorBinary
	}
	c.Preview.BorderColor = strings.TrimSpace(c.Preview.BorderColor)
	return nil
}

// EnsureDirectories creates the directories a pipeline run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputRoot, c.Paths.LogDir, c.OutputDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// InputDir is the raw source frame directory for the configured dataset.
func (c *Config) InputDir() string {
	return filepath.Join(c.Paths.InputRoot, c.Dataset.Name)
}

// IndexedDir is the canonically indexed sibling of InputDir.
func (c *Config) IndexedDir() string {
	return c.InputDir() + c.Dataset.IndexSuffix
}

// OutputDir holds the prompt record and per-frame binary masks.
func (c *Config) OutputDir() string {
	return filepath.Join(c.Paths.OutputRoot, c.Dataset.Name+c.Dataset.IndexSuffix)
}

// MasksDir is where binary mask images are written.
func (c *Config) MasksDir() string {
	return c.OutputDir()
}

// VisualsDir is where full-run cutout visualizations are written.
func (c *Config) VisualsDir() string {
	return c.OutputDir() + "_masked"
}

// PreviewDir is where preview overlays are written; cleared per preview run.
func (c *Config) PreviewDir() string {
	return filepath.Join(c.OutputDir(), "preview")
}

// PromptsPath is the location of the dataset's prompt record.
func (c *Config) PromptsPath() string {
	return filepath.Join(c.OutputDir(), "prompts.json")
}

// LockPath is the per-dataset run lock guarding against concurrent pipelines.
func (c *Config) LockPath() string {
	return filepath.Join(c.OutputDir(), "run.lock")
}

// RunLogPath is the SQLite run journal location.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.Paths.LogDir, "runs.db")
}

// LogFilePath is the structured log destination, empty when log_dir is unset.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "maskpipe.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
