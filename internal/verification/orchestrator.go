// Package verification drives voters through the biometric pipeline and
// issues the single-use verdicts the ledger requires before a ballot.
package verification

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/matdaan/vicore/internal/biometric"
	"github.com/matdaan/vicore/internal/config"
	"github.com/matdaan/vicore/internal/models"
)

// AttemptLog records every verification attempt and answers the rate limiter.
// Entries are append-only; the log never feeds back into verdicts.
type AttemptLog interface {
	WriteAttempt(ctx context.Context, attempt *models.VerificationAttempt) error
	CountRecentFailures(ctx context.Context, voterID string, since time.Time) (uint, error)
}

// Request carries one verification or enrollment attempt.
type Request struct {
	VoterID   string
	Frames    [][]byte // encoded camera frames, oldest first
	IPAddress string
}

// Orchestrator runs detection, liveness, matching and the duplicate scan in
// order, short-circuiting on the first failure. It keeps no state between
// attempts; every outcome is appended to the attempt log.
type Orchestrator struct {
	cfg       config.BiometricConfig
	detector  *biometric.Detector
	liveness  *biometric.LivenessDetector
	matcher   *biometric.Matcher
	directory Directory
	attempts  AttemptLog
	verdicts  *VerdictStore
}

func NewOrchestrator(cfg config.BiometricConfig, directory Directory, attempts AttemptLog, verdicts *VerdictStore) *Orchestrator {
	detector := biometric.NewDetector(cfg)
	return &Orchestrator{
		cfg:       cfg,
		detector:  detector,
		liveness:  biometric.NewLivenessDetector(detector, cfg),
		matcher:   biometric.NewMatcher(cfg),
		directory: directory,
		attempts:  attempts,
		verdicts:  verdicts,
	}
}

// Verify runs the full pipeline for a claimed voter identity. On success it
// issues a fresh single-use verdict; on a pipeline failure it returns a
// StageError carrying the logged outcome.
func (o *Orchestrator) Verify(ctx context.Context, req Request) (Verdict, error) {
	if err := checkRequest(req); err != nil {
		return Verdict{}, err
	}
	if err := o.checkRateLimit(ctx, req.VoterID); err != nil {
		return Verdict{}, err
	}

	frames, err := decodeFrames(req.Frames)
	if err != nil {
		return Verdict{}, err
	}

	outcome, detail, err := o.verifyPipeline(ctx, req.VoterID, frames)
	if err != nil {
		return Verdict{}, err
	}

	if err := o.logAttempt(ctx, req, outcome, detail); err != nil {
		return Verdict{}, err
	}

	if outcome != models.OutcomePassed {
		return Verdict{}, &StageError{Outcome: outcome, Reason: detail}
	}

	slog.Info("Verification verdict issued", "voter", req.VoterID)
	return o.verdicts.Issue(req.VoterID), nil
}

// Enroll gates a new voter: frame quality, detection, liveness and a
// duplicate scan across everyone already enrolled. The caller persists the
// returned signature in its directory. Running the scan here and again at
// verification time closes both registration and voting against a second
// identity.
func (o *Orchestrator) Enroll(ctx context.Context, req Request) (biometric.Signature, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	if err := o.checkRateLimit(ctx, req.VoterID); err != nil {
		return nil, err
	}

	frames, err := decodeFrames(req.Frames)
	if err != nil {
		return nil, err
	}

	outcome, detail, sig, err := o.enrollPipeline(ctx, req.VoterID, frames)
	if err != nil {
		return nil, err
	}

	if err := o.logAttempt(ctx, req, outcome, "enrollment: "+detail); err != nil {
		return nil, err
	}

	if outcome != models.OutcomePassed {
		return nil, &StageError{Outcome: outcome, Reason: detail}
	}

	slog.Info("Voter enrolled", "voter", req.VoterID)
	return sig, nil
}

func (o *Orchestrator) verifyPipeline(ctx context.Context, voterID string, frames []image.Image) (models.AttemptOutcome, string, error) {
	region, frameIdx, err := o.detectBest(ctx, frames)
	if err != nil {
		if errors.Is(err, biometric.ErrNoFaceDetected) {
			return models.OutcomeFailedDetection, "no face detected in any frame", nil
		}
		return "", "", err
	}

	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	live, err := o.liveness.Check(frames)
	if err != nil {
		if errors.Is(err, biometric.ErrNoFaceDetected) {
			return models.OutcomeFailedDetection, err.Error(), nil
		}
		return "", "", err
	}
	if !live.Live {
		return models.OutcomeFailedLiveness,
			fmt.Sprintf("no blink or motion across %d frames (motion %.1fpx)", live.FramesUsed, live.MeanMotionPx), nil
	}

	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	sig, err := biometric.ExtractSignature(frames[frameIdx], region)
	if err != nil {
		return models.OutcomeFailedDetection, err.Error(), nil
	}

	reference, err := o.directory.Lookup(ctx, voterID)
	if err != nil {
		return "", "", err
	}
	distance, err := biometric.Distance(sig, reference)
	if err != nil {
		return "", "", fmt.Errorf("reference signature for voter %s: %w", voterID, err)
	}
	if !o.matcher.IsMatch(distance) {
		return models.OutcomeFailedMatch,
			fmt.Sprintf("signature distance %.3f above threshold %.3f", distance, o.matcher.Threshold()), nil
	}

	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	dup, found, err := o.findDuplicate(ctx, voterID, sig)
	if err != nil {
		return "", "", err
	}
	if found {
		return models.OutcomeDuplicateDetected,
			fmt.Sprintf("signature matches enrolled voter %s at distance %.3f", dup.VoterID, dup.Distance), nil
	}

	return models.OutcomePassed, fmt.Sprintf("signature distance %.3f", distance), nil
}

func (o *Orchestrator) enrollPipeline(ctx context.Context, voterID string, frames []image.Image) (models.AttemptOutcome, string, biometric.Signature, error) {
	if err := biometric.CheckQuality(frames[0]); err != nil {
		return models.OutcomeFailedDetection, err.Error(), nil, nil
	}

	region, frameIdx, err := o.detectBest(ctx, frames)
	if err != nil {
		if errors.Is(err, biometric.ErrNoFaceDetected) {
			return models.OutcomeFailedDetection, "no face detected in any frame", nil, nil
		}
		return "", "", nil, err
	}

	if err := ctx.Err(); err != nil {
		return "", "", nil, err
	}
	live, err := o.liveness.Check(frames)
	if err != nil {
		if errors.Is(err, biometric.ErrNoFaceDetected) {
			return models.OutcomeFailedDetection, err.Error(), nil, nil
		}
		return "", "", nil, err
	}
	if !live.Live {
		return models.OutcomeFailedLiveness,
			fmt.Sprintf("no blink or motion across %d frames (motion %.1fpx)", live.FramesUsed, live.MeanMotionPx), nil, nil
	}

	sig, err := biometric.ExtractSignature(frames[frameIdx], region)
	if err != nil {
		return models.OutcomeFailedDetection, err.Error(), nil, nil
	}

	if err := ctx.Err(); err != nil {
		return "", "", nil, err
	}
	dup, found, err := o.findDuplicate(ctx, voterID, sig)
	if err != nil {
		return "", "", nil, err
	}
	if found {
		return models.OutcomeDuplicateDetected,
			fmt.Sprintf("signature matches enrolled voter %s at distance %.3f", dup.VoterID, dup.Distance), nil, nil
	}

	return models.OutcomePassed, "reference signature accepted", sig, nil
}

// detectBest returns the largest face found across the frames, preferring
// the closest, best-framed capture for signature extraction.
func (o *Orchestrator) detectBest(ctx context.Context, frames []image.Image) (biometric.Region, int, error) {
	bestIdx := -1
	var best biometric.Region
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return biometric.Region{}, 0, err
		}

		region, err := o.detector.Detect(frame)
		if err != nil {
			continue
		}
		if bestIdx < 0 || regionArea(region) > regionArea(best) {
			best, bestIdx = region, i
		}
	}

	if bestIdx < 0 {
		return biometric.Region{}, 0, biometric.ErrNoFaceDetected
	}
	return best, bestIdx, nil
}

func (o *Orchestrator) findDuplicate(ctx context.Context, selfID string, sig biometric.Signature) (biometric.Match, bool, error) {
	enrolled, err := o.directory.Enrolled(ctx)
	if err != nil {
		return biometric.Match{}, false, err
	}
	delete(enrolled, selfID)
	return o.matcher.FindDuplicate(sig, enrolled)
}

func (o *Orchestrator) checkRateLimit(ctx context.Context, voterID string) error {
	since := time.Now().Add(-o.cfg.FailureWindow)
	failures, err := o.attempts.CountRecentFailures(ctx, voterID, since)
	if err != nil {
		return fmt.Errorf("failed to count recent attempts: %w", err)
	}
	if failures >= o.cfg.MaxFailures {
		return fmt.Errorf("%w: %d failures in the last %s", ErrRateLimited, failures, o.cfg.FailureWindow)
	}
	return nil
}

func (o *Orchestrator) logAttempt(ctx context.Context, req Request, outcome models.AttemptOutcome, detail string) error {
	attempt := &models.VerificationAttempt{
		VoterID:   req.VoterID,
		Timestamp: time.Now().UTC(),
		Outcome:   outcome,
		Detail:    detail,
		IPAddress: req.IPAddress,
	}
	if err := o.attempts.WriteAttempt(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record verification attempt: %w", err)
	}
	return nil
}

func checkRequest(req Request) error {
	if req.VoterID == "" {
		return fmt.Errorf("voter ID must be set")
	}
	if len(req.Frames) == 0 {
		return fmt.Errorf("frame sequence must not be empty")
	}
	return nil
}

func decodeFrames(raw [][]byte) ([]image.Image, error) {
	frames := make([]image.Image, 0, len(raw))
	for i, data := range raw {
		img, err := biometric.DecodeFrame(data)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, img)
	}
	return frames, nil
}

func regionArea(r biometric.Region) int {
	return r.Rect.Dx() * r.Rect.Dy()
}
