package datastore

import (
	"context"
	"errors"
	"time"

	"facegate.io/infrastructure/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	AccountModel        *mongo.Collection
	FaceProfileModel    *mongo.Collection
	AttemptCounterModel *mongo.Collection
	BackupCodeModel     *mongo.Collection
	AuditEventModel     *mongo.Collection

	client *mongo.Client
)

func ConnectToDatabase(url string, dbName string) error {
	if url == "" {
		logger.Error("mongo url missing")
		return errors.New("mongo url missing")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(url)
	clientOpts.SetMinPoolSize(5)
	clientOpts.SetMaxPoolSize(10)

	var err error
	client, err = mongo.Connect(ctx, clientOpts)
	if err != nil {
		logger.Warning("an error occured while starting the database", logger.LoggerOptions{Key: "error", Data: err})
		return err
	}
	if err = client.Ping(ctx, nil); err != nil {
		logger.Warning("mongodb did not answer ping", logger.LoggerOptions{Key: "error", Data: err})
		return err
	}

	db := client.Database(dbName)
	setUpIndexes(ctx, db)

	logger.Info("connected to mongodb successfully")
	return nil
}

func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Set up the indexes for the database
func setUpIndexes(ctx context.Context, db *mongo.Database) {
	AccountModel = db.Collection("Accounts")
	AccountModel.Indexes().CreateMany(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetCollation(&options.Collation{Locale: "en", Strength: 2}),
	}, {
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
			"email": bson.M{"$type": "string"},
		}),
	}})

	FaceProfileModel = db.Collection("FaceProfiles")

	AttemptCounterModel = db.Collection("AttemptCounters")
	AttemptCounterModel.Indexes().CreateMany(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "lockedUntil", Value: 1}},
		Options: options.Index().SetSparse(true),
	}})

	BackupCodeModel = db.Collection("BackupCodes")
	BackupCodeModel.Indexes().CreateMany(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "accountID", Value: 1}, {Key: "generatedAt", Value: -1}},
		Options: options.Index(),
	}})

	AuditEventModel = db.Collection("AuditEvents")
	AuditEventModel.Indexes().CreateMany(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "accountID", Value: 1}, {Key: "occurredAt", Value: -1}},
		Options: options.Index(),
	}, {
		Keys:    bson.D{{Key: "type", Value: 1}},
		Options: options.Index(),
	}})

	logger.Info("mongodb indexes set up successfully")
}
