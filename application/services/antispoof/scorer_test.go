package antispoof

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func checkerboard(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// a horizontal ramp has plenty of contrast but almost no second order detail
func ramp(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 4)})
		}
	}
	return img
}

func noise(w, h int, seed int64) *image.RGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestScoreImage(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())

	tests := []struct {
		name    string
		img     image.Image
		verdict Verdict
	}{
		{name: "flat frame", img: uniform(32, 32, 128), verdict: Suspicious},
		{name: "smooth gradient", img: ramp(64, 64), verdict: Suspicious},
		{name: "high frequency detail", img: checkerboard(32, 32), verdict: Live},
		{name: "sensor noise", img: noise(48, 48, 7), verdict: Live},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := scorer.ScoreImage(tt.img, image.Rectangle{})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score.Value, 0.0)
			assert.LessOrEqual(t, score.Value, 1.0)
			assert.Equal(t, tt.verdict, scorer.Classify(score))
		})
	}
}

func TestScoreImageValues(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())

	flat, err := scorer.ScoreImage(uniform(16, 16, 200), image.Rectangle{})
	require.NoError(t, err)
	assert.Zero(t, flat.Texture)
	assert.Zero(t, flat.Contrast)
	assert.Zero(t, flat.Value)

	board, err := scorer.ScoreImage(checkerboard(16, 16), image.Rectangle{})
	require.NoError(t, err)
	assert.InDelta(t, 1020.0*1020.0, board.Texture, 1e-6)
	assert.InDelta(t, 127.5, board.Contrast, 1e-6)
	assert.InDelta(t, 1.0, board.Value, 1e-9)
}

func TestScoreImageRegion(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())

	// detailed patch in the middle of a flat frame
	img := uniform(64, 64, 90)
	board := checkerboard(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(24+x, 24+y, board.GrayAt(x, y))
		}
	}

	inside, err := scorer.ScoreImage(img, image.Rect(24, 24, 40, 40))
	require.NoError(t, err)
	assert.Equal(t, Live, scorer.Classify(inside))

	outside, err := scorer.ScoreImage(img, image.Rect(0, 0, 16, 16))
	require.NoError(t, err)
	assert.Equal(t, Suspicious, scorer.Classify(outside))
}

func TestScoreInvalidFrames(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())

	tests := []struct {
		name  string
		frame []byte
	}{
		{name: "nil", frame: nil},
		{name: "empty", frame: []byte{}},
		{name: "garbage", frame: []byte("definitely not an image")},
		{name: "too small", frame: encodePNG(t, uniform(2, 2, 10))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scorer.Score(tt.frame)
			assert.ErrorIs(t, err, ErrInvalidFrame)
		})
	}

	_, err := scorer.ScoreImage(uniform(10, 10, 1), image.Rect(50, 50, 60, 60))
	assert.ErrorIs(t, err, ErrInvalidFrame)
	_, err = scorer.ScoreImage(nil, image.Rectangle{})
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestScoreEncodedFrame(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())

	score, err := scorer.Score(encodePNG(t, checkerboard(20, 20)))
	require.NoError(t, err)
	assert.Equal(t, Live, scorer.Classify(score))
}

func TestScoreIsDeterministic(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())
	frame := encodePNG(t, noise(40, 40, 42))

	first, err := scorer.Score(frame)
	require.NoError(t, err)
	second, err := scorer.Score(frame)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewScorerFillsMissingCeilings(t *testing.T) {
	scorer := NewScorer(Thresholds{MinTexture: 30, MinContrast: 20})
	score, err := scorer.ScoreImage(checkerboard(8, 8), image.Rectangle{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score.Value, 1e-9)
}

func TestScoreAgreesWithScoreImage(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())
	img := checkerboard(24, 24)

	fromBytes, err := scorer.Score(encodePNG(t, img))
	require.NoError(t, err)
	fromImage, err := scorer.ScoreImage(img, image.Rectangle{})
	require.NoError(t, err)
	assert.InDelta(t, fromImage.Texture, fromBytes.Texture, 1e-6)
	assert.InDelta(t, fromImage.Contrast, fromBytes.Contrast, 1e-6)
}

func TestScoreImageColourFrame(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 90, 90, 90, 255
	}

	score, err := scorer.ScoreImage(img, image.Rectangle{})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score.Texture, 1e-9)
	assert.InDelta(t, 0.0, score.Contrast, 1e-9)
	assert.Equal(t, Suspicious, scorer.Classify(score))
}
