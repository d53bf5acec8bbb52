package repository

import (
	"context"
	"fmt"
	"time"

	"facegate.io/application/services/backupcode"
	"facegate.io/application/services/lockout"
	"facegate.io/entities"
	"facegate.io/infrastructure/database/connection/datastore"
	dbrepository "facegate.io/infrastructure/database/repository"
	"facegate.io/infrastructure/database/repository/memory"
	sqlstore "facegate.io/infrastructure/database/repository/sqlstore"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = sqlstore.DriverPostgres
	DriverSQLite   = sqlstore.DriverSQLite
	DriverMemory   = "memory"
)

type AccountStore interface {
	Create(ctx context.Context, account *entities.Account) error
	FindByID(ctx context.Context, id string) (*entities.Account, error)
	FindByUsername(ctx context.Context, username string) (*entities.Account, error)
	SetDisabled(ctx context.Context, id string, disabled bool, reason *string, operatorID *string) error
	IsDisabled(ctx context.Context, id string) (bool, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type FaceProfileStore interface {
	Find(ctx context.Context, accountID string) (*entities.FaceProfile, error)
	Save(ctx context.Context, profile *entities.FaceProfile) error
	Delete(ctx context.Context, accountID string) error
}

type AuditEventStore interface {
	Append(ctx context.Context, event *entities.AuditEvent) error
	List(ctx context.Context, filter dbrepository.AuditFilter) ([]entities.AuditEvent, error)
}

// Stores is every persistence port backed by one driver.
type Stores struct {
	Accounts        AccountStore
	FaceProfiles    FaceProfileStore
	AttemptCounters lockout.Store
	BackupCodes     backupcode.Store
	AuditEvents     AuditEventStore

	close func(ctx context.Context) error
}

func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the configured driver. dbName is only used by mongo.
func Open(ctx context.Context, driver string, dsn string, dbName string) (*Stores, error) {
	switch driver {
	case DriverMongo:
		if err := datastore.ConnectToDatabase(dsn, dbName); err != nil {
			return nil, err
		}
		return &Stores{
			Accounts:        NewMongoAccountStore(AccountRepo()),
			FaceProfiles:    NewMongoFaceProfileStore(FaceProfileRepo()),
			AttemptCounters: NewMongoAttemptCounterStore(AttemptCounterRepo()),
			BackupCodes:     NewMongoBackupCodeStore(BackupCodeRepo()),
			AuditEvents:     NewMongoAuditEventStore(AuditEventRepo()),
			close:           datastore.Disconnect,
		}, nil
	case DriverPostgres, DriverSQLite:
		db, err := sqlstore.Open(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Accounts:        sqlstore.NewAccountStore(db),
			FaceProfiles:    sqlstore.NewFaceProfileStore(db),
			AttemptCounters: sqlstore.NewAttemptCounterStore(db),
			BackupCodes:     sqlstore.NewBackupCodeStore(db),
			AuditEvents:     sqlstore.NewAuditEventStore(db),
			close:           func(context.Context) error { return db.Close() },
		}, nil
	case DriverMemory:
		return NewMemoryStores(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

// NewMemoryStores keeps everything in process; state is lost on restart.
func NewMemoryStores() *Stores {
	return &Stores{
		Accounts:        memory.NewAccountStore(),
		FaceProfiles:    memory.NewFaceProfileStore(),
		AttemptCounters: memory.NewAttemptCounterStore(),
		BackupCodes:     memory.NewBackupCodeStore(),
		AuditEvents:     memory.NewAuditEventStore(),
	}
}
