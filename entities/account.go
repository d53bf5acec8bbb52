package entities

import (
	"time"

	"facegate.io/application/utils"
)

type Role string

const (
	UserRole    Role = "user"
	AdminRole   Role = "admin"
	AuditorRole Role = "auditor"
)

// This represents a person who can sign in. Operators are accounts with the admin role.
type Account struct {
	Username       string     `bson:"username" json:"username"`
	Email          *string    `bson:"email" json:"email,omitempty"`
	Password       string     `bson:"password" json:"-"`
	Role           Role       `bson:"role" json:"role"`
	Disabled       bool       `bson:"disabled" json:"disabled"`
	DisabledReason *string    `bson:"disabledReason" json:"disabledReason,omitempty"`
	DisabledBy     *string    `bson:"disabledBy" json:"disabledBy,omitempty"`
	LastLogin      *time.Time `bson:"lastLogin" json:"lastLogin,omitempty"`

	ID        string    `bson:"_id" json:"id"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (model Account) ParseModel() any {
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
		if model.ID == "" {
			model.ID = utils.GenerateUULDString()
		}
	}
	if model.Role == "" {
		model.Role = UserRole
	}
	model.UpdatedAt = now
	return &model
}

func (model *Account) IsAdmin() bool {
	return model.Role == AdminRole
}
