package slides

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Raster is a fixed-size grayscale image used for similarity scoring. Frames
// and reference slides are downscaled to the same raster size so scores are
// comparable and cheap to compute.
type Raster struct {
	Width  int
	Height int
	// Pix holds luminance values in [0,255], row-major.
	Pix []float64
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height int) *Raster {
	return &Raster{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// LoadGrayscale decodes an image file and downscales it to the given raster
// size using box averaging.
func LoadGrayscale(path string, width, height int) (*Raster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return rasterize(img, width, height), nil
}

// rasterize converts an image to grayscale and resizes it by averaging each
// destination pixel's source rectangle. Averaging is what we want here: it
// suppresses the high-frequency detail that makes full-resolution comparison
// noisy.
func rasterize(img image.Image, width, height int) *Raster {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	out := NewRaster(width, height)

	for y := 0; y < height; y++ {
		sy0 := y * srcH / height
		sy1 := (y + 1) * srcH / height
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		for x := 0; x < width; x++ {
			sx0 := x * srcW / width
			sx1 := (x + 1) * srcW / width
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}

			var sum float64
			for sy := sy0; sy < sy1; sy++ {
				for sx := sx0; sx < sx1; sx++ {
					r, g, b, _ := img.At(bounds.Min.X+sx, bounds.Min.Y+sy).RGBA()
					// ITU-R BT.601 luma, 16-bit channels scaled to [0,255].
					sum += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257
				}
			}
			out.Pix[y*width+x] = sum / float64((sy1-sy0)*(sx1-sx0))
		}
	}
	return out
}
