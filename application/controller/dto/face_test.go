package dto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaceImageDecode(t *testing.T) {
	raw := []byte("\x89PNG frame bytes")
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name    string
		request *FaceImageDTO
		want    []byte
		wantErr error
	}{
		{name: "nil request", request: nil, wantErr: ErrImageMissing},
		{name: "empty image", request: &FaceImageDTO{Image: "  "}, wantErr: ErrImageMissing},
		{name: "plain base64", request: &FaceImageDTO{Image: encoded}, want: raw},
		{name: "data url", request: &FaceImageDTO{Image: "data:image/png;base64," + encoded}, want: raw},
		{name: "data url without payload marker", request: &FaceImageDTO{Image: "data:image/png"}, wantErr: ErrImageEncoding},
		{name: "not base64", request: &FaceImageDTO{Image: "%%%"}, wantErr: ErrImageEncoding},
		{name: "too large", request: &FaceImageDTO{Image: strings.Repeat("A", MaxImageBytes*2)}, wantErr: ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.Decode()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
