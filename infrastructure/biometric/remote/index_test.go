package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"facegate.io/application/services/facematch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status *atomic.Int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	healthCalls := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		healthCalls.Add(1)
		w.WriteHeader(int(status.Load()))
	})
	mux.HandleFunc("/detect", func(w http.ResponseWriter, r *http.Request) {
		var req detectRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Image == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		if s := int(status.Load()); s != http.StatusOK {
			w.WriteHeader(s)
			return
		}
		json.NewEncoder(w).Encode(detectResponse{Faces: []facematch.BoundingBox{{X: 4, Y: 8, Width: 64, Height: 64, Confidence: 0.98}}})
	})
	mux.HandleFunc("/embed", func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		raw, err := base64.StdEncoding.DecodeString(req.Image)
		assert.NoError(t, err)
		assert.Equal(t, "frame", string(raw))
		assert.Equal(t, 64, req.Face.Width)
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, healthCalls
}

func TestDetectAndEmbed(t *testing.T) {
	status := &atomic.Int32{}
	status.Store(http.StatusOK)
	server, _ := newServer(t, status)
	fs := NewFaceService(server.URL+"/", time.Second)
	frame := facematch.Frame{Data: []byte("frame")}

	boxes, err := fs.Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, 64, boxes[0].Width)

	vector, err := fs.Embed(context.Background(), frame, boxes[0])
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vector)
}

func TestServerErrorsAreUnavailable(t *testing.T) {
	status := &atomic.Int32{}
	status.Store(http.StatusServiceUnavailable)
	server, _ := newServer(t, status)
	fs := NewFaceService(server.URL, time.Second)

	_, err := fs.Detect(context.Background(), facematch.Frame{Data: []byte("frame")})
	assert.ErrorIs(t, err, facematch.ErrBackendUnavailable)
}

func TestClientErrorsAreInvalidFrames(t *testing.T) {
	status := &atomic.Int32{}
	status.Store(http.StatusOK)
	server, _ := newServer(t, status)
	fs := NewFaceService(server.URL, time.Second)

	_, err := fs.Detect(context.Background(), facematch.Frame{})
	assert.ErrorIs(t, err, facematch.ErrInvalidFrame)
}

func TestUnreachableServiceIsUnavailable(t *testing.T) {
	fs := NewFaceService("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := fs.Detect(context.Background(), facematch.Frame{Data: []byte("frame")})
	assert.ErrorIs(t, err, facematch.ErrBackendUnavailable)
	assert.False(t, fs.Available(context.Background()))
}

func TestAvailableIsCached(t *testing.T) {
	status := &atomic.Int32{}
	status.Store(http.StatusOK)
	server, healthCalls := newServer(t, status)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	fs := NewFaceService(server.URL, time.Second)
	fs.now = func() time.Time { return now }

	assert.True(t, fs.Available(context.Background()))
	status.Store(http.StatusInternalServerError)
	assert.True(t, fs.Available(context.Background()))
	assert.Equal(t, int32(1), healthCalls.Load())

	now = now.Add(healthCacheTTL)
	assert.False(t, fs.Available(context.Background()))
	assert.Equal(t, int32(2), healthCalls.Load())
}

func TestAvailableProbesOnceForConcurrentCallers(t *testing.T) {
	healthCalls := &atomic.Int32{}
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		healthCalls.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	fs := NewFaceService(server.URL, 5*time.Second)

	const callers = 8
	results := make(chan bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- fs.Available(context.Background())
		}()
	}

	// the lock is free while the probe is in flight
	assert.Eventually(t, func() bool { return healthCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	done := make(chan struct{})
	go func() {
		fs.mu.Lock()
		fs.mu.Unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("health probe holds the lock")
	}

	close(release)
	wg.Wait()
	close(results)
	for healthy := range results {
		assert.True(t, healthy)
	}
	assert.Equal(t, int32(1), healthCalls.Load())
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func (m *mapCache) CreateEntry(_ context.Context, key string, payload interface{}, _ time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = payload.(string)
	return true
}

func (m *mapCache) FindOne(_ context.Context, key string) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return nil
	}
	return &value
}

func TestSharedHealth(t *testing.T) {
	status := &atomic.Int32{}
	status.Store(http.StatusOK)
	server, healthCalls := newServer(t, status)
	shared := &mapCache{entries: map[string]string{}}

	first := NewFaceService(server.URL, time.Second, WithSharedHealth(shared))
	assert.True(t, first.Available(context.Background()))
	assert.Equal(t, "up", shared.entries[healthKey])

	second := NewFaceService(server.URL, time.Second, WithSharedHealth(shared))
	assert.True(t, second.Available(context.Background()))
	assert.Equal(t, int32(1), healthCalls.Load())

	// a failed call on one instance marks the service down for the others
	status.Store(http.StatusBadGateway)
	_, err := first.Detect(context.Background(), facematch.Frame{Data: []byte("frame")})
	assert.ErrorIs(t, err, facematch.ErrBackendUnavailable)
	assert.Equal(t, "down", shared.entries[healthKey])

	third := NewFaceService(server.URL, time.Second, WithSharedHealth(shared))
	assert.False(t, third.Available(context.Background()))
	assert.Equal(t, int32(1), healthCalls.Load())
}
