// Package biometric implements the classical face pipeline: detection,
// liveness analysis and signature matching over plain pixel data.
package biometric

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// DecodeFrame decodes one JPEG or PNG frame.
func DecodeFrame(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return img, nil
}

// DecodeBase64Frame decodes a base64 frame, with or without a data-URL
// prefix, as browsers submit them.
func DecodeBase64Frame(encoded string) (image.Image, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return DecodeFrame(data)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// luma returns the Rec. 601 luminance of a pixel on a 0..255 scale.
func luma(rgba *image.RGBA, x, y int) float64 {
	i := rgba.PixOffset(x, y)
	r := float64(rgba.Pix[i])
	g := float64(rgba.Pix[i+1])
	b := float64(rgba.Pix[i+2])
	return 0.299*r + 0.587*g + 0.114*b
}

func meanLuma(rgba *image.RGBA, rect image.Rectangle) float64 {
	rect = rect.Intersect(rgba.Bounds())
	if rect.Empty() {
		return 0
	}

	var sum float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sum += luma(rgba, x, y)
		}
	}
	return sum / float64(rect.Dx()*rect.Dy())
}

// laplacianVariance measures focus. Low values indicate blur or a flat,
// textureless surface such as a printed photo.
func laplacianVariance(rgba *image.RGBA, rect image.Rectangle) float64 {
	rect = rect.Intersect(rgba.Bounds())
	if rect.Dx() < 3 || rect.Dy() < 3 {
		return 0
	}

	var responses []float64
	for y := rect.Min.Y + 1; y < rect.Max.Y-1; y++ {
		for x := rect.Min.X + 1; x < rect.Max.X-1; x++ {
			center := luma(rgba, x, y)
			lap := luma(rgba, x-1, y) + luma(rgba, x+1, y) +
				luma(rgba, x, y-1) + luma(rgba, x, y+1) - 4*center
			responses = append(responses, lap)
		}
	}

	var mean float64
	for _, r := range responses {
		mean += r
	}
	mean /= float64(len(responses))

	var variance float64
	for _, r := range responses {
		d := r - mean
		variance += d * d
	}
	return variance / float64(len(responses))
}
