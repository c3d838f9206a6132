package artifacts

import (
	"image"

	"golang.org/x/image/draw"

	"maskpipe/internal/predictor"
)

// Binarize thresholds a confidence mask at 0.5 into a strict {0, 255}
// grayscale image. Thresholding precedes any resize so interpolation can
// never blur the boundary.
func Binarize(mask predictor.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, mask.Width, mask.Height))
	for y := 0; y < mask.Height; y++ {
		row := y * mask.Width
		for x := 0; x < mask.Width; x++ {
			if mask.Data[row+x] > 0.5 {
				img.Pix[img.PixOffset(x, y)] = 255
			}
		}
	}
	return img
}

// FitTo returns the mask scaled to the given bounds with nearest-neighbor
// interpolation, re-binarized at the midpoint of the 0-255 range. A mask
// already at the target size is returned unchanged.
func FitTo(mask *image.Gray, bounds image.Rectangle) *image.Gray {
	if mask.Bounds().Dx() == bounds.Dx() && mask.Bounds().Dy() == bounds.Dy() {
		return mask
	}
	scaled := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), draw.Src, nil)
	rebinarize(scaled)
	return scaled
}

func rebinarize(img *image.Gray) {
	for i, v := range img.Pix {
		if v > 127 {
			img.Pix[i] = 255
		} else {
			img.Pix[i] = 0
		}
	}
}

// dilate grows the on-region by one step with a 3x3 kernel.
func dilate(mask *image.Gray) *image.Gray {
	bounds := mask.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if neighborOn(mask, x, y) {
				out.Pix[out.PixOffset(x, y)] = 255
			}
		}
	}
	return out
}

func neighborOn(mask *image.Gray, x, y int) bool {
	bounds := mask.Bounds()
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < bounds.Min.X || ny < bounds.Min.Y || nx >= bounds.Max.X || ny >= bounds.Max.Y {
				continue
			}
			if mask.Pix[mask.PixOffset(nx, ny)] > 0 {
				return true
			}
		}
	}
	return false
}
