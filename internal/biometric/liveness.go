package biometric

import (
	"fmt"
	"image"
	"math"

	"github.com/matdaan/vicore/internal/config"
)

// LivenessResult carries the liveness decision plus the signals behind it.
// The texture variance is recorded for auditing but does not decide.
type LivenessResult struct {
	Live         bool
	Blink        bool
	Motion       bool
	MeanMotionPx float64
	TextureVar   float64
	FramesUsed   int
}

// LivenessDetector decides whether a frame sequence shows a live subject.
// A blink or sufficient head motion alone is enough; a static photo replay
// shows neither.
type LivenessDetector struct {
	detector    *Detector
	minFrames   int
	minMotionPx float64
}

func NewLivenessDetector(detector *Detector, cfg config.BiometricConfig) *LivenessDetector {
	return &LivenessDetector{
		detector:    detector,
		minFrames:   int(cfg.MinFrames),
		minMotionPx: cfg.MinMotionPx,
	}
}

// Check analyzes an ordered frame sequence. Frames without a detectable face
// contribute no signal; if no frame has one, ErrNoFaceDetected is returned.
func (l *LivenessDetector) Check(frames []image.Image) (LivenessResult, error) {
	if len(frames) < l.minFrames {
		return LivenessResult{}, fmt.Errorf("%w: got %d frames, need %d", ErrTooFewFrames, len(frames), l.minFrames)
	}

	type frameState struct {
		eyesOpen bool
		cx, cy   float64
	}

	var (
		states   []frameState
		lastRGBA *image.RGBA
		lastRect image.Rectangle
	)
	for _, frame := range frames {
		rgba := toRGBA(frame)
		region, err := l.detector.Detect(rgba)
		if err != nil {
			continue
		}

		left, right := eyeDarkFractions(rgba, region.Rect)
		cx, cy := region.Center()
		states = append(states, frameState{
			eyesOpen: left >= eyeOpenMin && right >= eyeOpenMin,
			cx:       cx,
			cy:       cy,
		})
		lastRGBA, lastRect = rgba, region.Rect
	}

	if len(states) == 0 {
		return LivenessResult{}, ErrNoFaceDetected
	}

	result := LivenessResult{
		FramesUsed: len(states),
		TextureVar: laplacianVariance(lastRGBA, lastRect),
	}

	// Blink: an open -> closed -> open transition across usable frames.
	for i := 0; i+2 < len(states); i++ {
		if states[i].eyesOpen && !states[i+1].eyesOpen && states[i+2].eyesOpen {
			result.Blink = true
			break
		}
	}

	if len(states) >= 2 {
		var total float64
		for i := 1; i < len(states); i++ {
			total += math.Hypot(states[i].cx-states[i-1].cx, states[i].cy-states[i-1].cy)
		}
		result.MeanMotionPx = total / float64(len(states)-1)
		result.Motion = result.MeanMotionPx >= l.minMotionPx
	}

	result.Live = result.Blink || result.Motion
	return result, nil
}
