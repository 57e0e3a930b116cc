package biometric

import (
	"fmt"
	"image"
)

const (
	qualityMinSide       = 200
	qualityMinBrightness = 50.0
	qualityMaxBrightness = 200.0
	qualityMinSharpness  = 100.0
)

// CheckQuality gates enrollment frames: resolution, exposure and focus must
// be usable before a reference signature is extracted from them.
func CheckQuality(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < qualityMinSide || bounds.Dy() < qualityMinSide {
		return fmt.Errorf("%w: resolution %dx%d below minimum %dx%d",
			ErrLowQuality, bounds.Dx(), bounds.Dy(), qualityMinSide, qualityMinSide)
	}

	rgba := toRGBA(img)
	brightness := meanLuma(rgba, bounds)
	if brightness < qualityMinBrightness {
		return fmt.Errorf("%w: image too dark (brightness %.1f)", ErrLowQuality, brightness)
	}
	if brightness > qualityMaxBrightness {
		return fmt.Errorf("%w: image overexposed (brightness %.1f)", ErrLowQuality, brightness)
	}

	if sharpness := laplacianVariance(rgba, bounds); sharpness < qualityMinSharpness {
		return fmt.Errorf("%w: image too blurry (sharpness %.1f)", ErrLowQuality, sharpness)
	}

	return nil
}
