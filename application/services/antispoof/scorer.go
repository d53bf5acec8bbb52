// Package antispoof scores a captured frame for signs of a presentation attack
// (printed photo, screen replay). It looks at two signals of the grayscale face
// region: Laplacian variance, which drops on re-captured flat media, and the
// intensity standard deviation, which drops on washed out screens.
package antispoof

import (
	"errors"
	"image"
	"math"

	"gocv.io/x/gocv"
)

var ErrInvalidFrame = errors.New("frame is empty or could not be decoded")

type Verdict string

const (
	Live       Verdict = "live"
	Suspicious Verdict = "suspicious"
)

// minimum side length the 3x3 Laplacian can be evaluated on
const minSide = 3

type LivenessScore struct {
	// variance of the Laplacian of the grayscale region
	Texture float64 `json:"texture"`
	// standard deviation of the grayscale region
	Contrast float64 `json:"contrast"`
	// weighted confidence in [0, 1]
	Value float64 `json:"value"`
}

type Thresholds struct {
	MinTexture  float64
	MinContrast float64

	// saturation points used to normalise each signal into [0, 1]
	TextureCeiling  float64
	ContrastCeiling float64
	TextureWeight   float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTexture:      30,
		MinContrast:     20,
		TextureCeiling:  200,
		ContrastCeiling: 50,
		TextureWeight:   0.7,
	}
}

type Scorer struct {
	thresholds Thresholds
}

func NewScorer(thresholds Thresholds) *Scorer {
	if thresholds.TextureCeiling <= 0 || thresholds.ContrastCeiling <= 0 {
		defaults := DefaultThresholds()
		thresholds.TextureCeiling = defaults.TextureCeiling
		thresholds.ContrastCeiling = defaults.ContrastCeiling
	}
	if thresholds.TextureWeight <= 0 || thresholds.TextureWeight > 1 {
		thresholds.TextureWeight = DefaultThresholds().TextureWeight
	}
	return &Scorer{thresholds: thresholds}
}

// Score decodes an encoded frame (jpeg or png) and scores the whole image.
func (s *Scorer) Score(frame []byte) (LivenessScore, error) {
	if len(frame) == 0 {
		return LivenessScore{}, ErrInvalidFrame
	}
	gray, err := gocv.IMDecode(frame, gocv.IMReadGrayScale)
	if err != nil {
		return LivenessScore{}, ErrInvalidFrame
	}
	defer gray.Close()
	if gray.Empty() {
		return LivenessScore{}, ErrInvalidFrame
	}
	return s.scoreMat(gray)
}

// ScoreImage scores the part of img inside region. An empty region scores the whole image.
func (s *Scorer) ScoreImage(img image.Image, region image.Rectangle) (LivenessScore, error) {
	if img == nil {
		return LivenessScore{}, ErrInvalidFrame
	}
	bounds := img.Bounds()
	if region.Empty() {
		region = bounds
	}
	region = region.Intersect(bounds)
	if region.Dx() < minSide || region.Dy() < minSide {
		return LivenessScore{}, ErrInvalidFrame
	}

	gray, err := toGray(img)
	if err != nil {
		return LivenessScore{}, ErrInvalidFrame
	}
	defer gray.Close()

	roi := gray.Region(region.Sub(bounds.Min))
	defer roi.Close()
	// a copy so the border of the region is reflected rather than read from its surroundings
	crop := roi.Clone()
	defer crop.Close()
	return s.scoreMat(crop)
}

// Classify turns a score into a verdict. Both signals must clear their minimum.
func (s *Scorer) Classify(score LivenessScore) Verdict {
	if score.Texture > s.thresholds.MinTexture && score.Contrast > s.thresholds.MinContrast {
		return Live
	}
	return Suspicious
}

func (s *Scorer) scoreMat(gray gocv.Mat) (LivenessScore, error) {
	if gray.Rows() < minSide || gray.Cols() < minSide {
		return LivenessScore{}, ErrInvalidFrame
	}

	laplacian := gocv.NewMat()
	defer laplacian.Close()
	gocv.Laplacian(gray, &laplacian, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)
	_, lapStdDev := meanStdDev(laplacian)
	texture := lapStdDev * lapStdDev

	_, contrast := meanStdDev(gray)

	textureScore := math.Min(texture/s.thresholds.TextureCeiling, 1)
	contrastScore := math.Min(contrast/s.thresholds.ContrastCeiling, 1)
	w := s.thresholds.TextureWeight

	return LivenessScore{
		Texture:  texture,
		Contrast: contrast,
		Value:    math.Min(w*textureScore+(1-w)*contrastScore, 1),
	}, nil
}

func meanStdDev(src gocv.Mat) (float64, float64) {
	mean := gocv.NewMat()
	defer mean.Close()
	stdDev := gocv.NewMat()
	defer stdDev.Close()
	gocv.MeanStdDev(src, &mean, &stdDev)
	return mean.GetDoubleAt(0, 0), stdDev.GetDoubleAt(0, 0)
}

func toGray(img image.Image) (gocv.Mat, error) {
	if g, ok := img.(*image.Gray); ok {
		return gocv.ImageGrayToMatGray(g)
	}
	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer rgb.Close()
	gray := gocv.NewMat()
	gocv.CvtColor(rgb, &gray, gocv.ColorRGBToGray)
	return gray, nil
}
