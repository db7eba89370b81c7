// Package visualization renders correlation grids as grayscale heatmap
// images for visual inspection of the estimator output.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// Heatmap renders bins x bins correlation or count grids.
type Heatmap struct {
	// quality is the JPEG encoding quality
	quality int

	// scale is the pixel magnification per grid cell
	scale int
}

// NewHeatmap creates a heatmap renderer with a cell magnification
// factor; a 21x21 grid at scale 16 yields a 336x336 image.
func NewHeatmap(scale int) *Heatmap {
	if scale < 1 {
		scale = 1
	}
	return &Heatmap{quality: 90, scale: scale}
}

// Render converts a grid into a grayscale image. Values are min/max
// normalized over the finite cells; non-finite cells (empty histogram
// bins) render black.
func (h *Heatmap) Render(grid *mat.Dense) image.Image {
	rows, cols := grid.Dims()

	// Find the finite value range
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := grid.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	span := hi - lo
	if span == 0 || math.IsInf(span, 0) {
		span = 1
	}

	img := image.NewGray16(image.Rect(0, 0, cols*h.scale, rows*h.scale))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := grid.At(i, j)
			var value uint16
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				value = uint16(math.Max(0, math.Min(65535, (v-lo)/span*65535)))
			}
			for py := 0; py < h.scale; py++ {
				for px := 0; px < h.scale; px++ {
					// Row 0 is the most negative dy bin; draw it at the
					// bottom so the image axes match the offset axes.
					img.SetGray16(j*h.scale+px, (rows-1-i)*h.scale+py, color.Gray16{Y: value})
				}
			}
		}
	}
	return img
}

// Save renders a grid and writes it as a JPEG image.
func (h *Heatmap) Save(grid *mat.Dense, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, h.Render(grid), &jpeg.Options{Quality: h.quality})
}

// SaveAll writes one heatmap per named grid into outputDir.
func (h *Heatmap) SaveAll(grids map[string]*mat.Dense, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	for name, grid := range grids {
		filename := filepath.Join(outputDir, fmt.Sprintf("%s.jpg", name))
		if err := h.Save(grid, filename); err != nil {
			return fmt.Errorf("saving %s: %w", name, err)
		}
	}
	return nil
}
