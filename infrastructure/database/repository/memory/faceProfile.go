package memory

import (
	"context"
	"sync"

	"facegate.io/entities"
)

type FaceProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]entities.FaceProfile
}

func NewFaceProfileStore() *FaceProfileStore {
	return &FaceProfileStore{profiles: map[string]entities.FaceProfile{}}
}

func (s *FaceProfileStore) Find(ctx context.Context, accountID string) (*entities.FaceProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[accountID]
	if !ok {
		return nil, nil
	}
	return cloneProfile(profile), nil
}

func (s *FaceProfileStore) Save(ctx context.Context, profile *entities.FaceProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = *cloneProfile(*profile)
	return nil
}

func (s *FaceProfileStore) Delete(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, accountID)
	return nil
}

func cloneProfile(profile entities.FaceProfile) *entities.FaceProfile {
	profile.Embedding = append([]float64(nil), profile.Embedding...)
	if profile.Secondary != nil {
		secondary := *profile.Secondary
		secondary.Vector = append([]float64(nil), secondary.Vector...)
		profile.Secondary = &secondary
	}
	return &profile
}
