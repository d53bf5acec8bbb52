package entities

import (
	"fmt"
	"time"
)

type Channel string

const (
	PasswordChannel Channel = "password"
	FaceChannel     Channel = "face"
)

func (c Channel) Valid() bool {
	return c == PasswordChannel || c == FaceChannel
}

// AttemptCounter tracks consecutive failed attempts of one account on one channel.
// Version increases by one on every successful write and is used for compare-and-swap.
type AttemptCounter struct {
	AccountID   string     `bson:"accountID" json:"accountID"`
	Channel     Channel    `bson:"channel" json:"channel"`
	FailedCount int        `bson:"failedCount" json:"failedCount"`
	LockedUntil *time.Time `bson:"lockedUntil" json:"lockedUntil"`
	Version     int64      `bson:"version" json:"-"`

	ID        string    `bson:"_id" json:"id"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func AttemptCounterID(accountID string, channel Channel) string {
	return fmt.Sprintf("%s:%s", accountID, channel)
}

func (model AttemptCounter) ParseModel() any {
	if model.ID == "" {
		model.ID = AttemptCounterID(model.AccountID, model.Channel)
	}
	model.UpdatedAt = time.Now()
	return &model
}

// IsLocked reports whether the lock window is still open at now.
func (model *AttemptCounter) IsLocked(now time.Time) bool {
	return model.LockedUntil != nil && now.Before(*model.LockedUntil)
}
