package biometric_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdaan/vicore/internal/biometric"
	"github.com/matdaan/vicore/internal/testutil"
)

func uniformImage(side int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestCheckQualityAcceptsPortrait(t *testing.T) {
	require.NoError(t, biometric.CheckQuality(testutil.Portrait{Seed: 1, EyesOpen: true}.Image()))
}

func TestCheckQualityRejectsLowResolution(t *testing.T) {
	err := biometric.CheckQuality(image.NewRGBA(image.Rect(0, 0, 100, 100)))
	require.ErrorIs(t, err, biometric.ErrLowQuality)
	assert.Contains(t, err.Error(), "resolution")
}

func TestCheckQualityRejectsDarkImage(t *testing.T) {
	err := biometric.CheckQuality(uniformImage(256, color.RGBA{R: 10, G: 10, B: 10, A: 255}))
	require.ErrorIs(t, err, biometric.ErrLowQuality)
	assert.Contains(t, err.Error(), "too dark")
}

func TestCheckQualityRejectsOverexposedImage(t *testing.T) {
	err := biometric.CheckQuality(uniformImage(256, color.RGBA{R: 240, G: 240, B: 240, A: 255}))
	require.ErrorIs(t, err, biometric.ErrLowQuality)
	assert.Contains(t, err.Error(), "overexposed")
}

func TestCheckQualityRejectsFlatImage(t *testing.T) {
	err := biometric.CheckQuality(uniformImage(256, color.RGBA{R: 120, G: 120, B: 120, A: 255}))
	require.ErrorIs(t, err, biometric.ErrLowQuality)
	assert.Contains(t, err.Error(), "blurry")
}
