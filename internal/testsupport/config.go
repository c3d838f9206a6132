package testsupport

import (
	"path/filepath"
	"testing"

	"maskpipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Dataset.Name = "testset"
	cfg.Paths.InputRoot = filepath.Join(base, "in")
	cfg.Paths.OutputRoot = filepath.Join(base, "out")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Predictor.Device = "cpu"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithDataset overrides the dataset name on the test config.
func WithDataset(name string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dataset.Name = name
	}
}

// WithPreviewFrames overrides the preview emission quota.
func WithPreviewFrames(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Preview.FrameCount = n
	}
}
