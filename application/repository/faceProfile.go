package repository

import (
	"context"
	"sync"

	"facegate.io/entities"
	"facegate.io/infrastructure/database/connection/datastore"
	"facegate.io/infrastructure/database/repository/mongo"
)

var faceProfileOnce = sync.Once{}

var faceProfileRepository mongo.MongoRepository[entities.FaceProfile]

func FaceProfileRepo() *mongo.MongoRepository[entities.FaceProfile] {
	faceProfileOnce.Do(func() {
		faceProfileRepository = mongo.MongoRepository[entities.FaceProfile]{Model: datastore.FaceProfileModel}
	})
	return &faceProfileRepository
}

type MongoFaceProfileStore struct {
	repo *mongo.MongoRepository[entities.FaceProfile]
}

func NewMongoFaceProfileStore(repo *mongo.MongoRepository[entities.FaceProfile]) *MongoFaceProfileStore {
	return &MongoFaceProfileStore{repo: repo}
}

func (s *MongoFaceProfileStore) Find(ctx context.Context, accountID string) (*entities.FaceProfile, error) {
	return s.repo.FindByID(ctx, accountID)
}

func (s *MongoFaceProfileStore) Save(ctx context.Context, profile *entities.FaceProfile) error {
	return s.repo.ReplaceOrCreate(ctx, map[string]any{"_id": profile.ID}, *profile)
}

func (s *MongoFaceProfileStore) Delete(ctx context.Context, accountID string) error {
	return s.repo.DeleteByID(ctx, accountID)
}
