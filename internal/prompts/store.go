package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"

	_ "image/jpeg"
	_ "image/png"

	"maskpipe/internal/services"
)

// Point is an (x, y) coordinate in source image pixels.
type Point [2]float64

// Record describes the labeled points placed on one annotated frame.
// Field names mirror the JSON the point picker writes.
type Record struct {
	FrameIndex  int     `json:"frame_idx"`
	ObjectID    int     `json:"obj_id"`
	Points      []Point `json:"points"`
	Labels      []int   `json:"labels"`
	ImageWidth  int     `json:"image_w"`
	ImageHeight int     `json:"image_h"`
	Source      string  `json:"source"`
}

// Validate checks the record invariants: matching point/label lengths and
// binary labels (1 = include, 0 = exclude).
func (r *Record) Validate() error {
	if len(r.Points) != len(r.Labels) {
		return services.Wrap(services.ErrInvalidPrompt, "prompts", "validate",
			fmt.Sprintf("%d points but %d labels", len(r.Points), len(r.Labels)), nil)
	}
	for i, label := range r.Labels {
		if label != 0 && label != 1 {
			return services.Wrap(services.ErrInvalidPrompt, "prompts", "validate",
				fmt.Sprintf("label %d at position %d must be 0 or 1", label, i), nil)
		}
	}
	if r.ImageWidth <= 0 || r.ImageHeight <= 0 {
		return services.Wrap(services.ErrInvalidPrompt, "prompts", "validate",
			fmt.Sprintf("image dimensions %dx%d must be positive", r.ImageWidth, r.ImageHeight), nil)
	}
	return nil
}

// Store reads and writes the prompt record at a fixed path.
type Store struct {
	path string
}

// NewStore binds a store to the prompt record location.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Write validates and persists the record. An empty point list is replaced
// with a single positive point at the image center so the record is never
// empty; a non-empty list is stored untouched.
func (s *Store) Write(rec Record) error {
	if len(rec.Points) == 0 {
		rec.Points = []Point{{float64(rec.ImageWidth / 2), float64(rec.ImageHeight / 2)}}
		rec.Labels = []int{1}
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prompt record: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prompt record: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace prompt record: %w", err)
	}
	return nil
}

// Read loads and validates the persisted record.
func (s *Store) Read() (Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, services.Wrap(services.ErrMissingPrompt, "prompts", "read",
				fmt.Sprintf("%s not found; run the point picker and save first", s.path), nil)
		}
		return Record{}, fmt.Errorf("read prompt record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, services.Wrap(services.ErrInvalidPrompt, "prompts", "read",
			fmt.Sprintf("parse %s", s.path), err)
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ImageSize decodes just the geometry of an image file so callers can fill
// ImageWidth/ImageHeight without a full pixel decode.
func ImageSize(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open image %s: %w", path, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
