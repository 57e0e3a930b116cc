package biometric

import (
	"image"

	"github.com/matdaan/vicore/internal/config"
)

const (
	faceAspectMin = 0.75
	faceAspectMax = 2.0
	faceFillMin   = 0.35

	// A pixel counts as dark below this fraction of the face mean luminance.
	eyeDarkRelative = 0.60
	// Dark-pixel fraction needed to call an eye present, and to call it open.
	eyePresenceMin = 0.04
	eyeOpenMin     = 0.10

	confidenceTwoEyes = 0.8
	confidenceNoEyes  = 0.6
)

// Region is a detected face with a detector confidence score.
type Region struct {
	Rect       image.Rectangle
	Confidence float64
}

// Center returns the region midpoint, used for motion tracking.
func (r Region) Center() (float64, float64) {
	return float64(r.Rect.Min.X+r.Rect.Max.X) / 2, float64(r.Rect.Min.Y+r.Rect.Max.Y) / 2
}

// Detector finds the dominant face in a frame using skin-tone segmentation.
// It holds no per-request state and is safe for concurrent use.
type Detector struct {
	minFaceSize int
}

func NewDetector(cfg config.BiometricConfig) *Detector {
	return &Detector{minFaceSize: int(cfg.MinFaceSize)}
}

// Detect segments skin-toned regions, filters them by size and shape, and
// returns the largest candidate by bounding-box area. The largest face is
// treated as the subject closest to the camera; ties resolve to the top-most,
// then left-most region so detection stays deterministic.
func (d *Detector) Detect(img image.Image) (Region, error) {
	rgba := toRGBA(img)
	candidates := d.faceCandidates(rgba)
	if len(candidates) == 0 {
		return Region{}, ErrNoFaceDetected
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		area, bestArea := c.Dx()*c.Dy(), best.Dx()*best.Dy()
		if area > bestArea ||
			(area == bestArea && (c.Min.Y < best.Min.Y || (c.Min.Y == best.Min.Y && c.Min.X < best.Min.X))) {
			best = c
		}
	}

	confidence := confidenceNoEyes
	if left, right := eyeDarkFractions(rgba, best); left >= eyePresenceMin && right >= eyePresenceMin {
		confidence = confidenceTwoEyes
	}

	return Region{Rect: best, Confidence: confidence}, nil
}

// faceCandidates labels 4-connected skin-tone components and keeps the ones
// shaped like a face.
func (d *Detector) faceCandidates(rgba *image.RGBA) []image.Rectangle {
	bounds := rgba.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := rgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			if isSkinTone(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2]) {
				mask[y*w+x] = true
			}
		}
	}

	var candidates []image.Rectangle
	visited := make([]bool, w*h)
	queue := make([]int, 0, w)

	for start := 0; start < w*h; start++ {
		if !mask[start] || visited[start] {
			continue
		}

		minX, minY, maxX, maxY := w, h, 0, 0
		count := 0
		queue = append(queue[:0], start)
		visited[start] = true

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w

			count++
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for _, n := range [4]int{idx - w, idx + w, idx - 1, idx + 1} {
				if n < 0 || n >= w*h || visited[n] || !mask[n] {
					continue
				}
				// Row neighbors must not wrap around the image edge.
				if (n == idx-1 || n == idx+1) && n/w != y {
					continue
				}
				visited[n] = true
				queue = append(queue, n)
			}
		}

		bw, bh := maxX-minX+1, maxY-minY+1
		if bw < d.minFaceSize || bh < d.minFaceSize {
			continue
		}
		aspect := float64(bh) / float64(bw)
		if aspect < faceAspectMin || aspect > faceAspectMax {
			continue
		}
		if float64(count)/float64(bw*bh) < faceFillMin {
			continue
		}

		candidates = append(candidates, image.Rect(
			bounds.Min.X+minX, bounds.Min.Y+minY,
			bounds.Min.X+maxX+1, bounds.Min.Y+maxY+1,
		))
	}

	return candidates
}

// isSkinTone applies the classic RGB skin rule.
func isSkinTone(r, g, b uint8) bool {
	maxC := max(r, max(g, b))
	minC := min(r, min(g, b))
	diff := func(a, b uint8) uint8 {
		if a > b {
			return a - b
		}
		return b - a
	}
	return r > 95 && g > 40 && b > 20 &&
		maxC-minC > 15 &&
		diff(r, g) > 15 &&
		r > g && r > b
}

// eyeDarkFractions measures the dark-pixel density of the left and right eye
// bands relative to the face's mean luminance.
func eyeDarkFractions(rgba *image.RGBA, face image.Rectangle) (float64, float64) {
	faceMean := meanLuma(rgba, face)
	if faceMean == 0 {
		return 0, 0
	}
	threshold := eyeDarkRelative * faceMean

	w, h := face.Dx(), face.Dy()
	rowMin := face.Min.Y + int(0.22*float64(h))
	rowMax := face.Min.Y + int(0.45*float64(h))

	left := image.Rect(face.Min.X+int(0.15*float64(w)), rowMin, face.Min.X+int(0.45*float64(w)), rowMax)
	right := image.Rect(face.Min.X+int(0.55*float64(w)), rowMin, face.Min.X+int(0.85*float64(w)), rowMax)

	return darkFraction(rgba, left, threshold), darkFraction(rgba, right, threshold)
}

func darkFraction(rgba *image.RGBA, band image.Rectangle, threshold float64) float64 {
	band = band.Intersect(rgba.Bounds())
	if band.Empty() {
		return 0
	}

	dark := 0
	for y := band.Min.Y; y < band.Max.Y; y++ {
		for x := band.Min.X; x < band.Max.X; x++ {
			if luma(rgba, x, y) < threshold {
				dark++
			}
		}
	}
	return float64(dark) / float64(band.Dx()*band.Dy())
}
