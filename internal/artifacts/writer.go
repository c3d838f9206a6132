package artifacts

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"maskpipe/internal/fileutil"
	"maskpipe/internal/frames"
	"maskpipe/internal/predictor"
	"maskpipe/internal/services"
)

const jpegQuality = 95

// Writer materializes per-frame artifacts into the masks and visualization
// directories.
type Writer struct {
	masksDir   string
	visualsDir string
	dimAlpha   float64
	border     *color.RGBA
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithDimAlpha sets the overlay background dimming fraction.
func WithDimAlpha(alpha float64) WriterOption {
	return func(w *Writer) {
		w.dimAlpha = alpha
	}
}

// WithBorder enables the overlay mask outline in the given color.
func WithBorder(border *color.RGBA) WriterOption {
	return func(w *Writer) {
		w.border = border
	}
}

// NewWriter constructs a writer targeting the two artifact directories.
func NewWriter(masksDir, visualsDir string, opts ...WriterOption) *Writer {
	w := &Writer{masksDir: masksDir, visualsDir: visualsDir, dimAlpha: 0.9}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ArtifactName derives the output filename for one (frame, object) pair:
// the source stem, an "_obj<id>" suffix only when the frame carries multiple
// objects, and the source extension (".jpg" when the source has none).
func ArtifactName(originalName string, objectID, totalObjects int) string {
	ext := filepath.Ext(originalName)
	stem := strings.TrimSuffix(originalName, ext)
	if ext == "" {
		ext = ".jpg"
	}
	suffix := ""
	if totalObjects > 1 {
		suffix = fmt.Sprintf("_obj%d", objectID)
	}
	return stem + suffix + ext
}

// Write converts the mask to a strict binary image sized to the source frame
// and writes both artifacts. overlay selects the preview visualization policy
// instead of the full-run cutout. Returned paths identify the written files.
func (w *Writer) Write(frame frames.Frame, objectID, totalObjects int, mask predictor.Mask, overlay bool) (string, string, error) {
	src, err := loadImage(frame.Path)
	if err != nil {
		return "", "", services.Wrap(services.ErrArtifactWrite, "artifacts", "load source",
			fmt.Sprintf("frame %d (%s)", frame.Index, frame.Path), err)
	}

	binary := FitTo(Binarize(mask), src.Bounds())
	name := ArtifactName(frame.OriginalName, objectID, totalObjects)

	maskPath := filepath.Join(w.masksDir, name)
	if err := encodeImage(maskPath, binary); err != nil {
		return "", "", services.Wrap(services.ErrArtifactWrite, "artifacts", "write mask",
			fmt.Sprintf("frame %d (%s)", frame.Index, maskPath), err)
	}

	var vis image.Image
	if overlay {
		vis = Overlay(src, binary, w.dimAlpha, w.border)
	} else {
		vis = Cutout(src, binary)
	}
	visPath := filepath.Join(w.visualsDir, name)
	if err := encodeImage(visPath, vis); err != nil {
		return "", "", services.Wrap(services.ErrArtifactWrite, "artifacts", "write visualization",
			fmt.Sprintf("frame %d (%s)", frame.Index, visPath), err)
	}

	return maskPath, visPath, nil
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func encodeImage(path string, img image.Image) error {
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(file, img)
	default:
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return err
	}
	return file.Close()
}
