package testsupport

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteImage writes a small solid-color fixture image. The encoder is chosen
// by extension (.png, otherwise JPEG).
func WriteImage(t testing.TB, path string, width, height int, fill color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".png") {
		err = png.Encode(file, img)
	} else {
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatal(err)
	}
	if err := file.Close(); err != nil {
		t.Fatal(err)
	}
}

// WriteFrameDir populates dir with n white JPEG frames named {i:06d}.jpg and
// returns their paths in index order.
func WriteFrameDir(t testing.TB, dir string, n, width, height int) []string {
	t.Helper()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%06d.jpg", i))
		WriteImage(t, path, width, height, color.White)
		paths = append(paths, path)
	}
	return paths
}
