package artifacts

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Cutout keeps source pixels inside the mask and blacks out everything else.
func Cutout(src image.Image, mask *image.Gray) *image.RGBA {
	bounds := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			if mask.Pix[mask.PixOffset(x, y)] > 0 {
				out.Set(x, y, src.At(bounds.Min.X+x, bounds.Min.Y+y))
			} else {
				out.Set(x, y, color.Black)
			}
		}
	}
	return out
}

// Overlay keeps source pixels inside the mask and darkens the rest toward
// black by dimAlpha (0.6 = 60% darker), preserving background context while
// drawing the eye to the subject. When border is non-nil a one-step dilation
// outline is painted along the mask boundary.
func Overlay(src image.Image, mask *image.Gray, dimAlpha float64, border *color.RGBA) *image.RGBA {
	bounds := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	keep := 1 - dimAlpha
	if keep < 0 {
		keep = 0
	}

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			px := src.At(bounds.Min.X+x, bounds.Min.Y+y)
			if mask.Pix[mask.PixOffset(x, y)] > 0 {
				out.Set(x, y, px)
				continue
			}
			r, g, b, _ := px.RGBA()
			out.Set(x, y, color.RGBA{
				R: uint8(float64(r>>8) * keep),
				G: uint8(float64(g>>8) * keep),
				B: uint8(float64(b>>8) * keep),
				A: 255,
			})
		}
	}

	if border != nil {
		dilated := dilate(mask)
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				off := mask.PixOffset(x, y)
				if dilated.Pix[off] > 0 && mask.Pix[off] == 0 {
					out.Set(x, y, *border)
				}
			}
		}
	}
	return out
}

// ParseBorderColor converts "#rrggbb" into a color. Empty input means no
// border and returns nil.
func ParseBorderColor(value string) (*color.RGBA, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if !strings.HasPrefix(value, "#") || len(value) != 7 {
		return nil, fmt.Errorf("border color %q must look like #rrggbb", value)
	}
	parsed, err := strconv.ParseUint(value[1:], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("border color %q: %w", value, err)
	}
	return &color.RGBA{
		R: uint8(parsed >> 16),
		G: uint8(parsed >> 8),
		B: uint8(parsed),
		A: 255,
	}, nil
}
