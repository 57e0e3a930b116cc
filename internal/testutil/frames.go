package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matdaan/vicore/internal/biometric"
)

const canvasSide = 256

var (
	backgroundA = color.RGBA{R: 90, G: 110, B: 140, A: 255}
	backgroundB = color.RGBA{R: 70, G: 90, B: 120, A: 255}
	skin        = color.RGBA{R: 210, G: 150, B: 120, A: 255}
	skinShade   = color.RGBA{R: 120, G: 80, B: 60, A: 255}
	eyeDark     = color.RGBA{R: 40, G: 25, B: 20, A: 255}
)

// Portrait describes one deterministic synthetic face frame. The seed picks
// the person: it moves identity marks and eye proportions so different seeds
// yield clearly separated signatures while the same seed reproduces exactly.
type Portrait struct {
	Seed     int
	EyesOpen bool
	OffsetX  int
	OffsetY  int
}

// Image renders the portrait on a textured non-skin background.
func (p Portrait) Image() *image.RGBA {
	img := Canvas()
	face := image.Rect(68, 53, 188, 203).Add(image.Pt(p.OffsetX, p.OffsetY))
	DrawFace(img, face, p.Seed, p.EyesOpen)
	return img
}

// PNG renders and encodes the portrait as one camera frame.
func (p Portrait) PNG(t *testing.T) []byte {
	t.Helper()
	return EncodePNG(t, p.Image())
}

// Canvas returns the checkerboard background: textured enough to pass the
// sharpness gate, never skin-toned.
func Canvas() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, canvasSide, canvasSide))
	for y := 0; y < canvasSide; y++ {
		for x := 0; x < canvasSide; x++ {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, backgroundA)
			} else {
				img.SetRGBA(x, y, backgroundB)
			}
		}
	}
	return img
}

// DrawFace paints a synthetic face into rect: skin-toned block, seed-placed
// identity marks on the lower half, and eye patches in the upper band when
// the eyes are open.
func DrawFace(img *image.RGBA, rect image.Rectangle, seed int, eyesOpen bool) {
	fillRect(img, rect, skin)

	w, h := rect.Dx(), rect.Dy()

	for k := 0; k < 4; k++ {
		bx := 1 + (seed*7+k*3)%6
		by := 4 + (seed*5+k)%3
		mark := image.Rect(
			rect.Min.X+bx*w/8,
			rect.Min.Y+by*h/8,
			rect.Min.X+(bx+1)*w/8,
			rect.Min.Y+(by+1)*h/8,
		)
		fillRect(img, mark, skinShade)
	}

	if !eyesOpen {
		return
	}

	eyeW := max(4, w*(20+2*(seed%4))/120)
	eyeH := max(3, h*(14+2*(seed%3))/150)
	eyeY := rect.Min.Y + h/3

	for _, cx := range []int{rect.Min.X + 3*w/10, rect.Min.X + 7*w/10} {
		eye := image.Rect(cx-eyeW/2, eyeY-eyeH/2, cx+eyeW/2, eyeY+eyeH/2)
		fillRect(img, eye, eyeDark)
	}
}

// EncodePNG encodes an image as a PNG frame.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// NoFacePNG returns a frame with no face on it.
func NoFacePNG(t *testing.T) []byte {
	t.Helper()
	return EncodePNG(t, Canvas())
}

// BlinkFrames returns a sequence that passes liveness through a blink with
// the face perfectly still.
func BlinkFrames(t *testing.T, seed int) [][]byte {
	t.Helper()
	states := []bool{true, true, false, true, true}
	frames := make([][]byte, len(states))
	for i, open := range states {
		frames[i] = Portrait{Seed: seed, EyesOpen: open}.PNG(t)
	}
	return frames
}

// MotionFrames returns a sequence that passes liveness through head motion
// with the eyes open throughout.
func MotionFrames(t *testing.T, seed int) [][]byte {
	t.Helper()
	frames := make([][]byte, 5)
	for i := range frames {
		frames[i] = Portrait{Seed: seed, EyesOpen: true, OffsetX: i * 12}.PNG(t)
	}
	return frames
}

// StaticFrames returns identical frames: no blink, no motion, the replayed
// photo case.
func StaticFrames(t *testing.T, seed int) [][]byte {
	t.Helper()
	frame := Portrait{Seed: seed, EyesOpen: true}.PNG(t)
	frames := make([][]byte, 5)
	for i := range frames {
		frames[i] = frame
	}
	return frames
}

// Signature extracts a portrait's reference signature the way the pipeline
// would, for seeding directories in tests.
func Signature(t *testing.T, seed int) biometric.Signature {
	t.Helper()

	detector := biometric.NewDetector(BiometricConfig())
	img := Portrait{Seed: seed, EyesOpen: true}.Image()

	region, err := detector.Detect(img)
	require.NoError(t, err)

	sig, err := biometric.ExtractSignature(img, region)
	require.NoError(t, err)
	return sig
}

func fillRect(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
