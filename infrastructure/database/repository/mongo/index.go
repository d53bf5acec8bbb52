package mongo

import (
	"context"
	"errors"

	"facegate.io/infrastructure/database"
	"facegate.io/infrastructure/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (repo *MongoRepository[T]) CreateOne(ctx context.Context, payload T) (*T, error) {
	parsed := payload.ParseModel().(*T)
	_, err := repo.Model.InsertOne(ctx, parsed)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, database.ErrDuplicate
		}
		logger.Error("mongo - could not insert document", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return nil, err
	}
	return parsed, nil
}

// FindOneByFilter returns nil without an error when nothing matches.
func (repo *MongoRepository[T]) FindOneByFilter(ctx context.Context, filter map[string]any, opts ...*options.FindOneOptions) (*T, error) {
	var result T
	err := repo.Model.FindOne(ctx, filter, opts...).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (repo *MongoRepository[T]) FindByID(ctx context.Context, id string, opts ...*options.FindOneOptions) (*T, error) {
	return repo.FindOneByFilter(ctx, map[string]any{"_id": id}, opts...)
}

func (repo *MongoRepository[T]) FindMany(ctx context.Context, filter map[string]any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := repo.Model.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (repo *MongoRepository[T]) CountDocs(ctx context.Context, filter map[string]any) (int64, error) {
	return repo.Model.CountDocuments(ctx, filter)
}

// UpdatePartialByFilter sets the given fields and returns how many documents matched.
func (repo *MongoRepository[T]) UpdatePartialByFilter(ctx context.Context, filter map[string]any, payload map[string]any) (int64, error) {
	result, err := repo.Model.UpdateOne(ctx, filter, bson.M{"$set": payload})
	if err != nil {
		return 0, err
	}
	return result.MatchedCount, nil
}

func (repo *MongoRepository[T]) UpdatePartialByID(ctx context.Context, id string, payload map[string]any) (int64, error) {
	return repo.UpdatePartialByFilter(ctx, map[string]any{"_id": id}, payload)
}

func (repo *MongoRepository[T]) UpdateManyByFilter(ctx context.Context, filter map[string]any, payload map[string]any) (int64, error) {
	result, err := repo.Model.UpdateMany(ctx, filter, bson.M{"$set": payload})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// ReplaceOrCreate upserts payload as a whole under the given filter.
func (repo *MongoRepository[T]) ReplaceOrCreate(ctx context.Context, filter map[string]any, payload T) error {
	parsed := payload.ParseModel().(*T)
	_, err := repo.Model.ReplaceOne(ctx, filter, parsed, options.Replace().SetUpsert(true))
	return err
}

func (repo *MongoRepository[T]) DeleteByID(ctx context.Context, id string) error {
	_, err := repo.Model.DeleteOne(ctx, map[string]any{"_id": id})
	return err
}
