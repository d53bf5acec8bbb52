package entities

import (
	"time"

	"facegate.io/application/utils"
)

// BackupCode is a single-use fallback credential. Rows are never deleted;
// only the most recently generated code of an account can be verified.
type BackupCode struct {
	AccountID  string     `bson:"accountID" json:"accountID"`
	CodeHash   string     `bson:"codeHash" json:"-"`
	CodeCipher string     `bson:"codeCipher" json:"-"`
	Used       bool       `bson:"used" json:"used"`
	UsedAt     *time.Time `bson:"usedAt" json:"usedAt"`
	Revealed   bool       `bson:"revealed" json:"revealed"`
	Superseded bool       `bson:"superseded" json:"superseded"`

	ID          string    `bson:"_id" json:"id"`
	GeneratedAt time.Time `bson:"generatedAt" json:"generatedAt"`
}

func (model BackupCode) ParseModel() any {
	if model.GeneratedAt.IsZero() {
		model.GeneratedAt = time.Now()
	}
	if model.ID == "" {
		model.ID = utils.GenerateUULDString()
	}
	return &model
}
