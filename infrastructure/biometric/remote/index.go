// Package remote talks to a face embedding service over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"facegate.io/application/services/facematch"
	"facegate.io/infrastructure/logger"
	"golang.org/x/sync/singleflight"
)

const (
	healthCacheTTL = 10 * time.Second
	healthKey      = "remote_face_service_health"
)

// HealthCache shares the last health answer between instances.
type HealthCache interface {
	CreateEntry(ctx context.Context, key string, payload interface{}, ttl time.Duration) bool
	FindOne(ctx context.Context, key string) *string
}

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Faces []facematch.BoundingBox `json:"faces"`
}

type embedRequest struct {
	Image string                `json:"image"`
	Face  facematch.BoundingBox `json:"face"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

type FaceService struct {
	baseURL string
	client  *http.Client
	shared  HealthCache
	probes  singleflight.Group

	mu        sync.Mutex
	healthy   bool
	checkedAt time.Time
	now       func() time.Time
}

type Option func(*FaceService)

func WithSharedHealth(cache HealthCache) Option {
	return func(fs *FaceService) {
		fs.shared = cache
	}
}

func NewFaceService(baseURL string, timeout time.Duration, opts ...Option) *FaceService {
	fs := &FaceService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

func (fs *FaceService) Name() string {
	return "remote"
}

// Available probes /health and caches the answer for a few seconds. Concurrent
// callers share one probe and none of them holds the lock while it runs.
func (fs *FaceService) Available(ctx context.Context) bool {
	if healthy, fresh := fs.cached(); fresh {
		return healthy
	}
	healthy, _, _ := fs.probes.Do(healthKey, func() (interface{}, error) {
		return fs.probe(context.WithoutCancel(ctx)), nil
	})
	return healthy.(bool)
}

func (fs *FaceService) cached() (bool, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fresh := !fs.checkedAt.IsZero() && fs.now().Sub(fs.checkedAt) < healthCacheTTL
	return fs.healthy, fresh
}

func (fs *FaceService) probe(ctx context.Context) bool {
	// a probe that finished just before this one started already answered
	if healthy, fresh := fs.cached(); fresh {
		return healthy
	}
	if fs.shared != nil {
		if status := fs.shared.FindOne(ctx, healthKey); status != nil {
			healthy := *status == "up"
			fs.record(healthy, nil)
			return healthy
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fs.baseURL+"/health", nil)
	healthy := false
	if err == nil {
		var res *http.Response
		res, err = fs.client.Do(req)
		if err == nil {
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			healthy = res.StatusCode == http.StatusOK
		}
	}
	fs.record(healthy, err)
	fs.share(ctx, healthy)
	return healthy
}

func (fs *FaceService) record(healthy bool, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !healthy && fs.healthy {
		logger.Warning("remote face service is unhealthy", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
	}
	fs.healthy = healthy
	fs.checkedAt = fs.now()
}

func (fs *FaceService) share(ctx context.Context, healthy bool) {
	if fs.shared == nil {
		return
	}
	status := "down"
	if healthy {
		status = "up"
	}
	fs.shared.CreateEntry(ctx, healthKey, status, healthCacheTTL)
}

func (fs *FaceService) markDown(ctx context.Context) {
	fs.record(false, nil)
	fs.share(context.WithoutCancel(ctx), false)
}

func (fs *FaceService) Detect(ctx context.Context, frame facematch.Frame) ([]facematch.BoundingBox, error) {
	var res detectResponse
	err := fs.post(ctx, "/detect", detectRequest{Image: base64.StdEncoding.EncodeToString(frame.Data)}, &res)
	if err != nil {
		return nil, err
	}
	return res.Faces, nil
}

func (fs *FaceService) Embed(ctx context.Context, frame facematch.Frame, face facematch.BoundingBox) ([]float64, error) {
	var res embedResponse
	err := fs.post(ctx, "/embed", embedRequest{Image: base64.StdEncoding.EncodeToString(frame.Data), Face: face}, &res)
	if err != nil {
		return nil, err
	}
	return res.Embedding, nil
}

// post maps transport failures and 5xx answers to ErrBackendUnavailable and a
// 4xx answer to ErrInvalidFrame.
func (fs *FaceService) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fs.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := fs.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		fs.markDown(ctx)
		logger.Error("error calling remote face service", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "path",
			Data: path,
		})
		return fmt.Errorf("%w: %v", facematch.ErrBackendUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 500:
		fs.markDown(ctx)
		logger.Error("remote face service failed with status code", logger.LoggerOptions{
			Key:  "status_code",
			Data: res.StatusCode,
		}, logger.LoggerOptions{
			Key:  "path",
			Data: path,
		})
		return fmt.Errorf("%w: status %d", facematch.ErrBackendUnavailable, res.StatusCode)
	case res.StatusCode >= 400:
		return facematch.ErrInvalidFrame
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", facematch.ErrBackendUnavailable, err)
	}
	return nil
}
