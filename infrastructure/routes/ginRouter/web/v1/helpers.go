package routev1

import (
	"errors"
	"io"
	"strings"

	apperrors "facegate.io/application/appErrors"
	"facegate.io/application/controller/dto"
	"facegate.io/application/interfaces"
	"github.com/gin-gonic/gin"
)

func appContext(ctx *gin.Context) *interfaces.ApplicationContext[any] {
	return ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
}

func withBody[T any](ctx *gin.Context, body *T) *interfaces.ApplicationContext[T] {
	saved := appContext(ctx)
	params := map[string]string{}
	for _, p := range ctx.Params {
		params[p.Key] = p.Value
	}
	return &interfaces.ApplicationContext[T]{
		Ctx:       ctx,
		Body:      body,
		Keys:      saved.Keys,
		Header:    ctx.Request.Header,
		Param:     params,
		Client:    saved.Client,
		Principal: saved.Principal,
	}
}

// bindJSON binds an optional JSON body. An empty body leaves body untouched.
func bindJSON(ctx *gin.Context, body any) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}
	if err := ctx.ShouldBindJSON(body); err != nil && !errors.Is(err, io.EOF) {
		apperrors.ErrorProcessingPayload(ctx)
		return false
	}
	return true
}

// readFaceImage accepts a multipart "image" file or a JSON body carrying a
// base64 frame.
func readFaceImage(ctx *gin.Context) ([]byte, bool) {
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		header, err := ctx.FormFile("image")
		if err != nil {
			apperrors.ClientError(ctx, dto.ErrImageMissing.Error(), nil, nil)
			return nil, false
		}
		if header.Size > dto.MaxImageBytes {
			apperrors.ClientError(ctx, dto.ErrImageTooLarge.Error(), nil, nil)
			return nil, false
		}
		file, err := header.Open()
		if err != nil {
			apperrors.ErrorProcessingPayload(ctx)
			return nil, false
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, dto.MaxImageBytes+1))
		if err != nil || len(data) == 0 {
			apperrors.ClientError(ctx, dto.ErrImageMissing.Error(), nil, nil)
			return nil, false
		}
		return data, true
	}
	var body dto.FaceImageDTO
	if err := ctx.ShouldBindJSON(&body); err != nil {
		apperrors.ErrorProcessingPayload(ctx)
		return nil, false
	}
	data, err := body.Decode()
	if err != nil {
		apperrors.ClientError(ctx, err.Error(), nil, nil)
		return nil, false
	}
	return data, true
}
