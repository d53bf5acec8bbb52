package dto

import (
	"encoding/base64"
	"errors"
	"strings"
)

// MaxImageBytes bounds a decoded face frame.
const MaxImageBytes = 8 << 20

var (
	ErrImageMissing  = errors.New("image is required")
	ErrImageTooLarge = errors.New("image is larger than 8 MiB")
	ErrImageEncoding = errors.New("image must be base64 encoded")
)

// FaceImageDTO is the JSON form of a face frame. A data URL prefix is accepted.
type FaceImageDTO struct {
	Image string `json:"image"`
}

func (d *FaceImageDTO) Decode() ([]byte, error) {
	if d == nil || strings.TrimSpace(d.Image) == "" {
		return nil, ErrImageMissing
	}
	encoded := strings.TrimSpace(d.Image)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 {
			return nil, ErrImageEncoding
		}
		encoded = encoded[comma+1:]
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrImageEncoding
	}
	if len(data) == 0 {
		return nil, ErrImageMissing
	}
	return data, nil
}
