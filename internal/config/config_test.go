package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Default()
	cfg.Dataset.Name = "dress"
	return cfg
}

func TestDefaultValidatesWithDataset(t *testing.T) {
	cfg := validConfig()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRequiresDatasetName(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty dataset name")
	}
}

func TestValidateRejectsBadDimAlpha(t *testing.T) {
	cfg := validConfig()
	cfg.Preview.DimAlpha = 1.0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for dim_alpha = 1.0")
	}
}

func TestValidateRejectsBadBorderColor(t *testing.T) {
	cfg := validConfig()
	cfg.Preview.BorderColor = "green"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-hex border color")
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`input_root = "` + filepath.Join(dir, "in") + `"`,
		`output_root = "` + filepath.Join(dir, "out") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[dataset]",
		`name = "dress"`,
		"[preview]",
		"frame_count = 4",
		"dim_alpha = 0.5",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatalf("expected config at %s to be found", resolved)
	}
	if cfg.Dataset.Name != "dress" {
		t.Fatalf("unexpected dataset name %q", cfg.Dataset.Name)
	}
	if cfg.Preview.FrameCount != 4 {
		t.Fatalf("unexpected preview frame count %d", cfg.Preview.FrameCount)
	}
	// Unset fields keep defaults.
	if cfg.Dataset.IndexSuffix != "_indexed" {
		t.Fatalf("unexpected index suffix %q", cfg.Dataset.IndexSuffix)
	}
	if cfg.Predictor.Binary != "sam2-predict" {
		t.Fatalf("unexpected predictor binary %q", cfg.Predictor.Binary)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Paths.InputRoot = "/data/in"
	cfg.Paths.OutputRoot = "/data/out"

	if got := cfg.InputDir(); got != "/data/in/dress" {
		t.Errorf("InputDir = %q", got)
	}
	if got := cfg.IndexedDir(); got != "/data/in/dress_indexed" {
		t.Errorf("IndexedDir = %q", got)
	}
	if got := cfg.OutputDir(); got != "/data/out/dress_indexed" {
		t.Errorf("OutputDir = %q", got)
	}
	if got := cfg.VisualsDir(); got != "/data/out/dress_indexed_masked" {
		t.Errorf("VisualsDir = %q", got)
	}
	if got := cfg.PreviewDir(); got != "/data/out/dress_indexed/preview" {
		t.Errorf("PreviewDir = %q", got)
	}
	if got := cfg.PromptsPath(); got != "/data/out/dress_indexed/prompts.json" {
		t.Errorf("PromptsPath = %q", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[predictor]") {
		t.Fatal("generated sample missing predictor section")
	}
}
