package biometric

import "errors"

var (
	// ErrImageDecode reports a frame that is not a decodable image.
	ErrImageDecode = errors.New("failed to decode image frame")

	// ErrNoFaceDetected reports that no candidate face region was found.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrLowQuality reports a frame unusable for verification.
	ErrLowQuality = errors.New("image quality too low")

	// ErrTooFewFrames reports a frame sequence shorter than the liveness
	// analysis requires.
	ErrTooFewFrames = errors.New("not enough frames for liveness analysis")

	// ErrSignatureLength reports a malformed or truncated face signature.
	ErrSignatureLength = errors.New("signature length mismatch")
)
