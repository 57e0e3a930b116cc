package biometric

import (
	"fmt"
	"image"
	"math"

	"github.com/matdaan/vicore/internal/config"
)

const (
	signatureSide = 64 // resampled face crop edge, in pixels
	signatureGrid = 8  // feature blocks per side
)

// SignatureLen is the fixed length of every face signature: one mean
// luminance and one gradient energy per block.
const SignatureLen = 2 * signatureGrid * signatureGrid

// Signature is a face feature vector. Signatures are compared only by
// Distance; their coordinates carry no meaning on their own.
type Signature []float64

// ExtractSignature derives the signature of a detected face. The same frame
// and region always produce the identical vector: the crop is resampled to a
// fixed size with bilinear interpolation, summarized by per-block mean
// luminance and gradient energy, then z-normalized for lighting invariance.
func ExtractSignature(img image.Image, region Region) (Signature, error) {
	rgba := toRGBA(img)
	rect := region.Rect.Intersect(rgba.Bounds())
	if rect.Dx() < signatureGrid || rect.Dy() < signatureGrid {
		return nil, fmt.Errorf("face region %v too small for signature extraction", region.Rect)
	}

	grid := resampleLuma(rgba, rect)

	sig := make(Signature, SignatureLen)
	blockPx := signatureSide / signatureGrid
	for by := 0; by < signatureGrid; by++ {
		for bx := 0; bx < signatureGrid; bx++ {
			var meanSum, gradSum float64
			for y := by * blockPx; y < (by+1)*blockPx; y++ {
				for x := bx * blockPx; x < (bx+1)*blockPx; x++ {
					v := grid[y*signatureSide+x]
					meanSum += v

					var dx, dy float64
					if x+1 < signatureSide {
						dx = grid[y*signatureSide+x+1] - v
					}
					if y+1 < signatureSide {
						dy = grid[(y+1)*signatureSide+x] - v
					}
					gradSum += math.Abs(dx) + math.Abs(dy)
				}
			}

			b := by*signatureGrid + bx
			n := float64(blockPx * blockPx)
			sig[b] = meanSum / n
			sig[signatureGrid*signatureGrid+b] = gradSum / n
		}
	}

	normalize(sig)
	return sig, nil
}

// Distance is symmetric, bounded to [0, 1], and zero for identical
// signatures: half of one minus the cosine similarity of the vectors.
func Distance(a, b Signature) (float64, error) {
	if len(a) != SignatureLen || len(b) != SignatureLen {
		return 0, ErrSignatureLength
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	if na == 0 && nb == 0 {
		return 0, nil
	}
	if na == 0 || nb == 0 {
		return 1, nil
	}

	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	cos = math.Max(-1, math.Min(1, cos))
	return (1 - cos) / 2, nil
}

// Matcher applies the configured acceptance threshold to signature distances.
type Matcher struct {
	threshold float64
}

func NewMatcher(cfg config.BiometricConfig) *Matcher {
	return &Matcher{threshold: cfg.MatchThreshold}
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// IsMatch reports whether a distance is within the acceptance threshold.
func (m *Matcher) IsMatch(distance float64) bool {
	return distance <= m.threshold
}

// Match identifies the enrolled voter closest to a probe signature.
type Match struct {
	VoterID  string
	Distance float64
}

// FindDuplicate scans every enrolled signature and returns the closest one
// within the acceptance threshold. Ties resolve to the smaller voter ID so
// the scan is order-independent.
func (m *Matcher) FindDuplicate(sig Signature, enrolled map[string]Signature) (Match, bool, error) {
	best := Match{Distance: math.Inf(1)}
	for voterID, candidate := range enrolled {
		d, err := Distance(sig, candidate)
		if err != nil {
			return Match{}, false, fmt.Errorf("enrolled signature for voter %s: %w", voterID, err)
		}
		if d < best.Distance || (d == best.Distance && voterID < best.VoterID) {
			best = Match{VoterID: voterID, Distance: d}
		}
	}

	if best.VoterID == "" || !m.IsMatch(best.Distance) {
		return Match{}, false, nil
	}
	return best, true, nil
}

func resampleLuma(rgba *image.RGBA, rect image.Rectangle) []float64 {
	grid := make([]float64, signatureSide*signatureSide)
	sx := float64(rect.Dx()) / signatureSide
	sy := float64(rect.Dy()) / signatureSide

	for y := 0; y < signatureSide; y++ {
		for x := 0; x < signatureSide; x++ {
			fx := float64(rect.Min.X) + (float64(x)+0.5)*sx - 0.5
			fy := float64(rect.Min.Y) + (float64(y)+0.5)*sy - 0.5
			grid[y*signatureSide+x] = bilinearLuma(rgba, fx, fy)
		}
	}
	return grid
}

func bilinearLuma(rgba *image.RGBA, fx, fy float64) float64 {
	bounds := rgba.Bounds()
	clampX := func(x int) int { return max(bounds.Min.X, min(bounds.Max.X-1, x)) }
	clampY := func(y int) int { return max(bounds.Min.Y, min(bounds.Max.Y-1, y)) }

	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)

	v00 := luma(rgba, clampX(x0), clampY(y0))
	v10 := luma(rgba, clampX(x0+1), clampY(y0))
	v01 := luma(rgba, clampX(x0), clampY(y0+1))
	v11 := luma(rgba, clampX(x0+1), clampY(y0+1))

	top := v00*(1-tx) + v10*tx
	bottom := v01*(1-tx) + v11*tx
	return top*(1-ty) + bottom*ty
}

func normalize(sig Signature) {
	var mean float64
	for _, v := range sig {
		mean += v
	}
	mean /= float64(len(sig))

	var variance float64
	for _, v := range sig {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(sig)))
	if std < 1e-12 {
		for i := range sig {
			sig[i] = 0
		}
		return
	}

	for i := range sig {
		sig[i] = (sig[i] - mean) / std
	}
}
