// Package luminance reduces a rendered frame to a single perceptual
// brightness value in [0, 1].
package luminance

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"gonum.org/v1/gonum/floats"
)

// Rec. 709 luma weights.
const (
	RedWeight   = 0.2126
	GreenWeight = 0.7152
	BlueWeight  = 0.0722
)

// Luma weights normalized channel values in [0, 1].
func Luma(r, g, b float64) float64 {
	return RedWeight*r + GreenWeight*g + BlueWeight*b
}

// pixelLuma returns the luma of c with channels normalized to [0, 1].
func pixelLuma(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return Luma(float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff)
}

// Frame returns the mean luma over every pixel of img. An empty image has
// luminance 0.
func Frame(img image.Image) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return 0
	}

	row := make([]float64, w)
	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		rowLuma(img, y, row)
		total += floats.Sum(row)
	}
	return total / float64(w*h)
}

// rowLuma fills dst with the luma of row y. *image.RGBA is read directly
// from its pixel buffer.
func rowLuma(img image.Image, y int, dst []float64) {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok {
		off := rgba.PixOffset(bounds.Min.X, y)
		for i := range dst {
			p := rgba.Pix[off+4*i : off+4*i+3 : off+4*i+3]
			dst[i] = Luma(float64(p[0])/255, float64(p[1])/255, float64(p[2])/255)
		}
		return
	}
	for i := range dst {
		dst[i] = pixelLuma(img.At(bounds.Min.X+i, y))
	}
}

// Grayscale renders img as its per-pixel luma.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			l := pixelLuma(img.At(x, y))
			gray.SetGray(x, y, color.Gray{Y: uint8(l*255 + 0.5)})
		}
	}
	return gray
}

// WriteGrayscalePNG encodes the grayscale rendering of img to w.
func WriteGrayscalePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, Grayscale(img)); err != nil {
		return fmt.Errorf("failed to encode grayscale frame: %w", err)
	}
	return nil
}
