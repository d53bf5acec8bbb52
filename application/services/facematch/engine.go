// Package facematch enrolls and verifies faces. A primary backend is used when
// it is healthy; otherwise a secondary backend takes over under a stricter
// acceptance policy. Input and infrastructure problems come back as errors,
// while mismatches and suspected spoofs come back as rejected results, so
// callers only charge an attempt for the latter.
package facematch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"facegate.io/application/services/antispoof"
	"facegate.io/entities"
	"facegate.io/infrastructure/logger"
)

type Engine struct {
	primary   Backend
	secondary Backend
	store     ProfileStore
	liveness  LivenessChecker
	config    Config
	now       func() time.Time
}

func NewEngine(primary Backend, secondary Backend, store ProfileStore, liveness LivenessChecker, config Config) *Engine {
	if liveness == nil {
		liveness = antispoof.NewScorer(antispoof.DefaultThresholds())
	}
	return &Engine{
		primary:   primary,
		secondary: secondary,
		store:     store,
		liveness:  liveness,
		config:    config,
		now:       time.Now,
	}
}

type candidate struct {
	backend  Backend
	policy   MatchPolicy
	fallback bool
}

func (e *Engine) candidates(ctx context.Context) []candidate {
	out := []candidate{}
	if e.primary != nil && e.primary.Available(ctx) {
		out = append(out, candidate{backend: e.primary, policy: e.config.Primary})
	}
	if e.secondary != nil {
		out = append(out, candidate{backend: e.secondary, policy: e.config.Fallback, fallback: true})
	}
	return out
}

// face is a detected and liveness checked face in a frame.
type face struct {
	box      BoundingBox
	liveness antispoof.LivenessScore
	verdict  antispoof.Verdict
}

func (e *Engine) locate(ctx context.Context, backend Backend, frame Frame) (*face, error) {
	boxes, err := backend.Detect(ctx, frame)
	if err != nil {
		return nil, err
	}
	switch {
	case len(boxes) == 0:
		return nil, ErrNoFaceDetected
	case len(boxes) > 1:
		return nil, ErrMultipleFaces
	}
	box := boxes[0]
	if box.Width < e.config.MinFaceSize || box.Height < e.config.MinFaceSize {
		return nil, ErrLowQuality
	}
	found := &face{box: box, verdict: antispoof.Suspicious}
	score, err := e.liveness.ScoreImage(frame.Image, box.Rect())
	if err != nil {
		// an unscorable face region is treated as suspicious
		logger.Warning("liveness scoring failed", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "backend",
			Data: backend.Name(),
		})
		return found, nil
	}
	found.liveness = score
	found.verdict = e.liveness.Classify(score)
	return found, nil
}

// screen scores the whole frame before any detection runs. A frame that cannot
// be scored for a reason other than bad input is treated as suspicious.
func (e *Engine) screen(frame Frame) (antispoof.LivenessScore, antispoof.Verdict, error) {
	score, err := e.liveness.ScoreImage(frame.Image, image.Rectangle{})
	if errors.Is(err, ErrInvalidFrame) {
		return antispoof.LivenessScore{}, antispoof.Suspicious, err
	}
	if err != nil {
		logger.Warning("frame liveness scoring failed", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return antispoof.LivenessScore{}, antispoof.Suspicious, nil
	}
	return score, e.liveness.Classify(score), nil
}

func (e *Engine) embed(ctx context.Context, backend Backend, frame Frame, box BoundingBox) ([]float64, error) {
	vector, err := backend.Embed(ctx, frame, box)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, ErrLowQuality
	}
	return vector, nil
}

func unavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// Enroll replaces the account's face profile with one built from frame.
func (e *Engine) Enroll(ctx context.Context, accountID string, data []byte) (*entities.FaceProfile, error) {
	frame, err := DecodeFrame(data)
	if err != nil {
		return nil, err
	}
	for _, c := range e.candidates(ctx) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		profile, err := e.enrollWith(ctx, c, accountID, frame)
		if unavailable(err) {
			logger.Warning("face backend unavailable during enrollment", logger.LoggerOptions{
				Key:  "backend",
				Data: c.backend.Name(),
			}, logger.LoggerOptions{
				Key:  "error",
				Data: err,
			})
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := e.store.Save(ctx, profile); err != nil {
			return nil, err
		}
		logger.Info("face profile enrolled", logger.LoggerOptions{
			Key:  "accountID",
			Data: accountID,
		}, logger.LoggerOptions{
			Key:  "backend",
			Data: profile.Backend,
		})
		return profile, nil
	}
	return nil, ErrBackendUnavailable
}

func (e *Engine) enrollWith(ctx context.Context, c candidate, accountID string, frame Frame) (*entities.FaceProfile, error) {
	_, verdict, err := e.screen(frame)
	if err != nil {
		return nil, err
	}
	if verdict != antispoof.Live {
		return nil, ErrSpoofSuspected
	}
	found, err := e.locate(ctx, c.backend, frame)
	if err != nil {
		return nil, err
	}
	if found.verdict != antispoof.Live {
		return nil, ErrSpoofSuspected
	}
	vector, err := e.embed(ctx, c.backend, frame, found.box)
	if err != nil {
		return nil, err
	}
	profile := entities.FaceProfile{
		ID:         accountID,
		Embedding:  vector,
		Backend:    c.backend.Name(),
		EnrolledAt: e.now(),
	}
	if !c.fallback {
		profile.Secondary = e.secondaryEmbedding(ctx, frame)
	}
	return profile.ParseModel().(*entities.FaceProfile), nil
}

// secondaryEmbedding stores a comparable vector for the fallback backend.
// Failing here never blocks enrollment.
func (e *Engine) secondaryEmbedding(ctx context.Context, frame Frame) *entities.EmbeddingRecord {
	if e.secondary == nil || !e.secondary.Available(ctx) {
		return nil
	}
	boxes, err := e.secondary.Detect(ctx, frame)
	if err != nil || len(boxes) != 1 {
		logger.Info("skipping secondary embedding", logger.LoggerOptions{
			Key:  "faces",
			Data: len(boxes),
		}, logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil
	}
	vector, err := e.embed(ctx, e.secondary, frame, boxes[0])
	if err != nil {
		return nil
	}
	return &entities.EmbeddingRecord{Backend: e.secondary.Name(), Vector: vector}
}

// Verify compares frame with the enrolled profile.
func (e *Engine) Verify(ctx context.Context, accountID string, data []byte) (MatchResult, error) {
	profile, err := e.store.Find(ctx, accountID)
	if err != nil {
		return MatchResult{}, err
	}
	if profile == nil {
		return MatchResult{}, ErrNotEnrolled
	}
	frame, err := DecodeFrame(data)
	if err != nil {
		return MatchResult{}, err
	}
	var incompatible error
	for _, c := range e.candidates(ctx) {
		if err := ctx.Err(); err != nil {
			return MatchResult{}, err
		}
		result, err := e.verifyWith(ctx, c, profile, frame)
		if errors.Is(err, ErrProfileIncompatible) {
			incompatible = err
			continue
		}
		if unavailable(err) {
			logger.Warning("face backend unavailable during verification", logger.LoggerOptions{
				Key:  "backend",
				Data: c.backend.Name(),
			}, logger.LoggerOptions{
				Key:  "error",
				Data: err,
			})
			continue
		}
		if err != nil {
			return MatchResult{}, err
		}
		if err := ctx.Err(); err != nil {
			return MatchResult{}, err
		}
		return result, nil
	}
	if incompatible != nil {
		return MatchResult{}, incompatible
	}
	return MatchResult{}, ErrBackendUnavailable
}

func (e *Engine) verifyWith(ctx context.Context, c candidate, profile *entities.FaceProfile, frame Frame) (MatchResult, error) {
	stored, ok := profile.EmbeddingFor(c.backend.Name())
	if !ok {
		return MatchResult{}, fmt.Errorf("%w: no %s embedding", ErrProfileIncompatible, c.backend.Name())
	}
	result := MatchResult{
		Backend:  c.backend.Name(),
		Fallback: c.fallback,
	}
	score, verdict, err := e.screen(frame)
	if err != nil {
		return MatchResult{}, err
	}
	if verdict != antispoof.Live {
		result.Liveness = score
		result.Reason = SpoofSuspected
		return result, nil
	}
	found, err := e.locate(ctx, c.backend, frame)
	if err != nil {
		return MatchResult{}, err
	}
	result.Liveness = found.liveness
	if found.verdict != antispoof.Live {
		result.Reason = SpoofSuspected
		return result, nil
	}
	probe, err := e.embed(ctx, c.backend, frame, found.box)
	if err != nil {
		return MatchResult{}, err
	}
	if len(probe) != len(stored) {
		return MatchResult{}, fmt.Errorf("%w: embedding size %d, stored %d", ErrProfileIncompatible, len(probe), len(stored))
	}
	result.Accepted, result.Similarity, result.Distance, result.Score = c.policy.Decide(stored, probe)
	if !result.Accepted {
		result.Reason = NoMatch
	}
	return result, nil
}

func (e *Engine) IsEnrolled(ctx context.Context, accountID string) (bool, error) {
	profile, err := e.store.Find(ctx, accountID)
	if err != nil {
		return false, err
	}
	return profile != nil, nil
}

func (e *Engine) Health(ctx context.Context) []BackendHealth {
	out := []BackendHealth{}
	if e.primary != nil {
		out = append(out, BackendHealth{Name: e.primary.Name(), Role: "primary", Available: e.primary.Available(ctx)})
	}
	if e.secondary != nil {
		out = append(out, BackendHealth{Name: e.secondary.Name(), Role: "secondary", Available: e.secondary.Available(ctx)})
	}
	return out
}
