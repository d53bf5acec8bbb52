package repository

import (
	"context"
	"sync"
	"time"

	"facegate.io/entities"
	"facegate.io/infrastructure/database/connection/datastore"
	"facegate.io/infrastructure/database/repository/mongo"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var attemptCounterOnce = sync.Once{}

var attemptCounterRepository mongo.MongoRepository[entities.AttemptCounter]

func AttemptCounterRepo() *mongo.MongoRepository[entities.AttemptCounter] {
	attemptCounterOnce.Do(func() {
		attemptCounterRepository = mongo.MongoRepository[entities.AttemptCounter]{Model: datastore.AttemptCounterModel}
	})
	return &attemptCounterRepository
}

type MongoAttemptCounterStore struct {
	repo *mongo.MongoRepository[entities.AttemptCounter]
}

func NewMongoAttemptCounterStore(repo *mongo.MongoRepository[entities.AttemptCounter]) *MongoAttemptCounterStore {
	return &MongoAttemptCounterStore{repo: repo}
}

func (s *MongoAttemptCounterStore) Get(ctx context.Context, accountID string, channel entities.Channel) (*entities.AttemptCounter, error) {
	id := entities.AttemptCounterID(accountID, channel)
	counter, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if counter == nil {
		return &entities.AttemptCounter{ID: id, AccountID: accountID, Channel: channel}, nil
	}
	return counter, nil
}

// CompareAndSwap relies on the _id unique index for the first write and on
// a version filter afterwards.
func (s *MongoAttemptCounterStore) CompareAndSwap(ctx context.Context, expected int64, next *entities.AttemptCounter) (bool, error) {
	if next.ID == "" {
		next.ID = entities.AttemptCounterID(next.AccountID, next.Channel)
	}
	if expected == 0 {
		_, err := s.repo.Model.InsertOne(ctx, next)
		if err != nil {
			if mongodriver.IsDuplicateKeyError(err) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}
	result, err := s.repo.Model.UpdateOne(ctx, bson.M{"_id": next.ID, "version": expected}, bson.M{"$set": bson.M{
		"failedCount": next.FailedCount,
		"lockedUntil": next.LockedUntil,
		"version":     next.Version,
		"updatedAt":   next.UpdatedAt,
	}})
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (s *MongoAttemptCounterStore) ListLocked(ctx context.Context, now time.Time) ([]entities.AttemptCounter, error) {
	return s.repo.FindMany(ctx, map[string]any{
		"lockedUntil": bson.M{"$gt": now},
	}, options.Find().SetSort(bson.D{{Key: "lockedUntil", Value: 1}}))
}
