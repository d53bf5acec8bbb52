package repository

import (
	"context"
	"errors"
	"sync"

	"facegate.io/entities"
	"facegate.io/infrastructure/database"
	"facegate.io/infrastructure/database/connection/datastore"
	dbrepository "facegate.io/infrastructure/database/repository"
	"facegate.io/infrastructure/database/repository/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var auditEventOnce = sync.Once{}

var auditEventRepository mongo.MongoRepository[entities.AuditEvent]

func AuditEventRepo() *mongo.MongoRepository[entities.AuditEvent] {
	auditEventOnce.Do(func() {
		auditEventRepository = mongo.MongoRepository[entities.AuditEvent]{Model: datastore.AuditEventModel}
	})
	return &auditEventRepository
}

type MongoAuditEventStore struct {
	repo *mongo.MongoRepository[entities.AuditEvent]
}

func NewMongoAuditEventStore(repo *mongo.MongoRepository[entities.AuditEvent]) *MongoAuditEventStore {
	return &MongoAuditEventStore{repo: repo}
}

// Append ignores a duplicate ID, which is what a redelivered task produces.
func (s *MongoAuditEventStore) Append(ctx context.Context, event *entities.AuditEvent) error {
	_, err := s.repo.CreateOne(ctx, *event)
	if errors.Is(err, database.ErrDuplicate) {
		return nil
	}
	return err
}

func (s *MongoAuditEventStore) List(ctx context.Context, filter dbrepository.AuditFilter) ([]entities.AuditEvent, error) {
	query := map[string]any{}
	if filter.AccountID != "" {
		query["accountID"] = filter.AccountID
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Since != nil {
		query["occurredAt"] = bson.M{"$gte": *filter.Since}
	}
	return s.repo.FindMany(ctx, query, options.Find().
		SetSort(bson.D{{Key: "occurredAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(filter.PageSize())))
}
