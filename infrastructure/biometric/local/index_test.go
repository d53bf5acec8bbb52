package local

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(width, height int, step int) []byte {
	pixels := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixels[y*width+x] = byte((x*step + y) % 256)
		}
	}
	return pixels
}

func TestLBPHistogramIsUnitLength(t *testing.T) {
	vector, err := LBPHistogram(gradient(faceSide, faceSide, 3), faceSide, faceSide)
	require.NoError(t, err)
	assert.Len(t, vector, gridCells*gridCells*histBins)

	var sum float64
	for _, v := range vector {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9)
}

func TestLBPHistogramFlatImage(t *testing.T) {
	flat := make([]byte, faceSide*faceSide)
	vector, err := LBPHistogram(flat, faceSide, faceSide)
	require.NoError(t, err)

	// every neighbour equals the centre, so each cell only has code 255
	for cell := 0; cell < gridCells*gridCells; cell++ {
		assert.Greater(t, vector[cell*histBins+255], 0.0)
		assert.Zero(t, vector[cell*histBins])
	}
}

func TestLBPHistogramIsDeterministic(t *testing.T) {
	a, err := LBPHistogram(gradient(faceSide, faceSide, 5), faceSide, faceSide)
	require.NoError(t, err)
	b, err := LBPHistogram(gradient(faceSide, faceSide, 5), faceSide, faceSide)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLBPHistogramRejectsBadInput(t *testing.T) {
	_, err := LBPHistogram([]byte{1, 2, 3}, 2, 2)
	assert.Error(t, err)
	_, err = LBPHistogram(make([]byte, 10), 4, 4)
	assert.Error(t, err)
}
