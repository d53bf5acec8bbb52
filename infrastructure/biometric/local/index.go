// Package local is the in-process fallback face backend: Haar cascade
// detection and a local binary pattern histogram as the embedding.
package local

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"sync"

	"facegate.io/application/services/facematch"
	"facegate.io/infrastructure/logger"
	"gocv.io/x/gocv"
)

const (
	cascadeFile = "haarcascade_frontalface_alt.xml"
	faceSide    = 64
	gridCells   = 4
	histBins    = 256
)

var searchPaths = []string{
	"/usr/local/share/opencv4/haarcascades",
	"/usr/share/opencv4/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
}

type FaceService struct {
	// the classifier is not safe for concurrent use
	mu      sync.Mutex
	cascade gocv.CascadeClassifier
	minSize int
}

// NewFaceService loads the frontal face cascade from dir, falling back to the
// usual OpenCV install locations.
func NewFaceService(dir string, minSize int) (*FaceService, error) {
	cascade := gocv.NewCascadeClassifier()
	paths := searchPaths
	if dir != "" {
		paths = append([]string{dir}, searchPaths...)
	}
	for _, path := range paths {
		if cascade.Load(filepath.Join(path, cascadeFile)) {
			logger.Info("loaded face cascade", logger.LoggerOptions{
				Key:  "path",
				Data: path,
			})
			return &FaceService{cascade: cascade, minSize: minSize}, nil
		}
	}
	cascade.Close()
	return nil, fmt.Errorf("could not load %s from %v", cascadeFile, paths)
}

func (fs *FaceService) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cascade.Close()
}

func (fs *FaceService) Name() string {
	return "local"
}

func (fs *FaceService) Available(context.Context) bool {
	return true
}

func decodeGray(frame facematch.Frame) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(frame.Data, gocv.IMReadGrayScale)
	if err != nil {
		return gocv.Mat{}, facematch.ErrInvalidFrame
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, facematch.ErrInvalidFrame
	}
	return mat, nil
}

func (fs *FaceService) Detect(ctx context.Context, frame facematch.Frame) ([]facematch.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gray, err := decodeGray(frame)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(gray, &equalized)

	fs.mu.Lock()
	rects := fs.cascade.DetectMultiScaleWithParams(equalized, 1.1, 5, 0, image.Pt(fs.minSize, fs.minSize), image.Pt(0, 0))
	fs.mu.Unlock()

	boxes := make([]facematch.BoundingBox, 0, len(rects))
	for _, rect := range rects {
		boxes = append(boxes, facematch.BoundingBox{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
			// the cascade gives no score
			Confidence: 1,
		})
	}
	return boxes, nil
}

func (fs *FaceService) Embed(ctx context.Context, frame facematch.Frame, face facematch.BoundingBox) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gray, err := decodeGray(frame)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	bounds := image.Rect(0, 0, gray.Cols(), gray.Rows())
	rect := face.Rect().Intersect(bounds)
	if rect.Empty() {
		return nil, facematch.ErrLowQuality
	}
	region := gray.Region(rect)
	defer region.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(region, &resized, image.Pt(faceSide, faceSide), 0, 0, gocv.InterpolationLinear)

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(resized, &equalized)

	return LBPHistogram(equalized.ToBytes(), faceSide, faceSide)
}

// LBPHistogram splits a grayscale image into a grid, builds a 256 bin local
// binary pattern histogram per cell and returns the L2 normalised concatenation.
func LBPHistogram(pixels []byte, width, height int) ([]float64, error) {
	if width < 3 || height < 3 || len(pixels) != width*height {
		return nil, errors.New("image too small for local binary patterns")
	}
	cellW := (width - 2) / gridCells
	cellH := (height - 2) / gridCells
	if cellW == 0 || cellH == 0 {
		return nil, errors.New("image too small for local binary patterns")
	}

	out := make([]float64, gridCells*gridCells*histBins)
	at := func(x, y int) byte { return pixels[y*width+x] }
	// neighbours clockwise from the top left
	offsets := [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}}

	for y := 1; y < height-1; y++ {
		row := (y - 1) / cellH
		if row >= gridCells {
			row = gridCells - 1
		}
		for x := 1; x < width-1; x++ {
			col := (x - 1) / cellW
			if col >= gridCells {
				col = gridCells - 1
			}
			center := at(x, y)
			code := 0
			for bit, o := range offsets {
				if at(x+o[0], y+o[1]) >= center {
					code |= 1 << bit
				}
			}
			out[(row*gridCells+col)*histBins+code]++
		}
	}

	var norm float64
	for _, v := range out {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out, nil
}
