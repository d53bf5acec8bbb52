package repository

import (
	"context"
	"sync"
	"time"

	"facegate.io/entities"
	"facegate.io/infrastructure/database/connection/datastore"
	"facegate.io/infrastructure/database/repository/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var backupCodeOnce = sync.Once{}

var backupCodeRepository mongo.MongoRepository[entities.BackupCode]

func BackupCodeRepo() *mongo.MongoRepository[entities.BackupCode] {
	backupCodeOnce.Do(func() {
		backupCodeRepository = mongo.MongoRepository[entities.BackupCode]{Model: datastore.BackupCodeModel}
	})
	return &backupCodeRepository
}

type MongoBackupCodeStore struct {
	repo *mongo.MongoRepository[entities.BackupCode]
}

func NewMongoBackupCodeStore(repo *mongo.MongoRepository[entities.BackupCode]) *MongoBackupCodeStore {
	return &MongoBackupCodeStore{repo: repo}
}

// Insert supersedes first, so a crash between the two writes leaves the
// account without an active code rather than with two.
func (s *MongoBackupCodeStore) Insert(ctx context.Context, code *entities.BackupCode) error {
	if err := s.SupersedeAll(ctx, code.AccountID); err != nil {
		return err
	}
	_, err := s.repo.CreateOne(ctx, *code)
	return err
}

func (s *MongoBackupCodeStore) Latest(ctx context.Context, accountID string) (*entities.BackupCode, error) {
	return s.repo.FindOneByFilter(ctx, map[string]any{
		"accountID":  accountID,
		"superseded": false,
	}, options.FindOne().SetSort(bson.D{{Key: "generatedAt", Value: -1}, {Key: "_id", Value: -1}}))
}

func (s *MongoBackupCodeStore) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	matched, err := s.repo.UpdatePartialByFilter(ctx, map[string]any{"_id": id, "used": false}, map[string]any{
		"used":   true,
		"usedAt": usedAt,
	})
	return matched == 1, err
}

func (s *MongoBackupCodeStore) MarkRevealed(ctx context.Context, id string) (bool, error) {
	matched, err := s.repo.UpdatePartialByFilter(ctx, map[string]any{"_id": id, "revealed": false}, map[string]any{
		"revealed": true,
	})
	return matched == 1, err
}

func (s *MongoBackupCodeStore) SupersedeAll(ctx context.Context, accountID string) error {
	_, err := s.repo.UpdateManyByFilter(ctx, map[string]any{"accountID": accountID, "superseded": false}, map[string]any{
		"superseded": true,
	})
	return err
}

func (s *MongoBackupCodeStore) CountSince(ctx context.Context, accountID string, since time.Time) (int, error) {
	count, err := s.repo.CountDocs(ctx, map[string]any{
		"accountID":   accountID,
		"generatedAt": bson.M{"$gte": since},
	})
	return int(count), err
}
