package facematch

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"facegate.io/application/services/antispoof"
	"facegate.io/entities"
)

var (
	ErrInvalidFrame        = antispoof.ErrInvalidFrame
	ErrNoFaceDetected      = errors.New("no face detected")
	ErrMultipleFaces       = errors.New("more than one face detected")
	ErrLowQuality          = errors.New("face is too small or unclear")
	ErrSpoofSuspected      = errors.New("frame looks like a presentation attack")
	ErrNotEnrolled         = errors.New("account has no face profile")
	ErrProfileIncompatible = errors.New("stored profile cannot be compared with the available backend")
	ErrBackendUnavailable  = errors.New("face backend unavailable")
)

type BoundingBox struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Frame is one captured image, kept both encoded (for remote backends) and decoded.
type Frame struct {
	Data  []byte
	Image image.Image
}

func DecodeFrame(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrInvalidFrame
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, ErrInvalidFrame
	}
	return Frame{Data: data, Image: img}, nil
}

// Backend detects faces and turns a face region into an embedding. Outages and
// timeouts are reported as ErrBackendUnavailable so the engine can fall back.
type Backend interface {
	Name() string
	Available(ctx context.Context) bool
	Detect(ctx context.Context, frame Frame) ([]BoundingBox, error)
	Embed(ctx context.Context, frame Frame, face BoundingBox) ([]float64, error)
}

type ProfileStore interface {
	Find(ctx context.Context, accountID string) (*entities.FaceProfile, error)
	Save(ctx context.Context, profile *entities.FaceProfile) error
}

type LivenessChecker interface {
	ScoreImage(img image.Image, region image.Rectangle) (antispoof.LivenessScore, error)
	Classify(score antispoof.LivenessScore) antispoof.Verdict
}

type RejectReason string

const (
	NoMatch        RejectReason = "no_match"
	SpoofSuspected RejectReason = "spoof_suspected"
)

// MatchResult is the engine's verdict. Similarity and distance are for logs
// and audit only; clients get accept/reject.
type MatchResult struct {
	Accepted   bool                    `json:"accepted"`
	Reason     RejectReason            `json:"reason,omitempty"`
	Similarity float64                 `json:"-"`
	Distance   float64                 `json:"-"`
	Score      float64                 `json:"-"`
	Backend    string                  `json:"backend"`
	Fallback   bool                    `json:"fallback"`
	Liveness   antispoof.LivenessScore `json:"-"`
}

type MatchPolicy struct {
	// minimum weighted score
	AcceptThreshold float64
	// maximum normalised L2 distance
	MaxDistance float64
	// weight of cosine similarity in the score; the rest goes to 1 - distance
	CosineWeight float64
}

type Config struct {
	Primary     MatchPolicy
	Fallback    MatchPolicy
	MinFaceSize int
}

func DefaultConfig() Config {
	return Config{
		Primary:     MatchPolicy{AcceptThreshold: 0.35, MaxDistance: 0.30, CosineWeight: 0.7},
		Fallback:    MatchPolicy{AcceptThreshold: 0.90, MaxDistance: 0.30, CosineWeight: 0.7},
		MinFaceSize: 48,
	}
}

type BackendHealth struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Available bool   `json:"available"`
}
