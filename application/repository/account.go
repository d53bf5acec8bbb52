package repository

import (
	"context"
	"sync"
	"time"

	"facegate.io/entities"
	"facegate.io/infrastructure/database"
	"facegate.io/infrastructure/database/connection/datastore"
	"facegate.io/infrastructure/database/repository/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var accountOnce = sync.Once{}

var accountRepository mongo.MongoRepository[entities.Account]

func AccountRepo() *mongo.MongoRepository[entities.Account] {
	accountOnce.Do(func() {
		accountRepository = mongo.MongoRepository[entities.Account]{Model: datastore.AccountModel}
	})
	return &accountRepository
}

var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type MongoAccountStore struct {
	repo *mongo.MongoRepository[entities.Account]
}

func NewMongoAccountStore(repo *mongo.MongoRepository[entities.Account]) *MongoAccountStore {
	return &MongoAccountStore{repo: repo}
}

func (s *MongoAccountStore) Create(ctx context.Context, account *entities.Account) error {
	_, err := s.repo.CreateOne(ctx, *account)
	return err
}

func (s *MongoAccountStore) FindByID(ctx context.Context, id string) (*entities.Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *MongoAccountStore) FindByUsername(ctx context.Context, username string) (*entities.Account, error) {
	return s.repo.FindOneByFilter(ctx, map[string]any{"username": username}, options.FindOne().SetCollation(caseInsensitive))
}

func (s *MongoAccountStore) SetDisabled(ctx context.Context, id string, disabled bool, reason *string, operatorID *string) error {
	if !disabled {
		reason = nil
		operatorID = nil
	}
	matched, err := s.repo.UpdatePartialByID(ctx, id, map[string]any{
		"disabled":       disabled,
		"disabledReason": reason,
		"disabledBy":     operatorID,
		"updatedAt":      time.Now(),
	})
	if err != nil {
		return err
	}
	if matched == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (s *MongoAccountStore) IsDisabled(ctx context.Context, id string) (bool, error) {
	account, err := s.repo.FindByID(ctx, id, options.FindOne().SetProjection(map[string]any{"disabled": 1}))
	if err != nil || account == nil {
		return false, err
	}
	return account.Disabled, nil
}

func (s *MongoAccountStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	matched, err := s.repo.UpdatePartialByID(ctx, id, map[string]any{"lastLogin": at})
	if err != nil {
		return err
	}
	if matched == 0 {
		return database.ErrNotFound
	}
	return nil
}
