package entities

import (
	"time"

	"facegate.io/application/utils"
)

type AuditEventType string

const (
	FaceEnrolled         AuditEventType = "face_enrolled"
	FaceVerified         AuditEventType = "face_verified"
	FaceRejected         AuditEventType = "face_rejected"
	AccountWarned        AuditEventType = "account_warned"
	AccountLocked        AuditEventType = "account_locked"
	AccountAutoUnlocked  AuditEventType = "account_auto_unlocked"
	AccountAdminUnlocked AuditEventType = "account_admin_unlocked"
	AccountDisabled      AuditEventType = "account_disabled"
	AccountEnabled       AuditEventType = "account_enabled"
	BackupCodeGenerated  AuditEventType = "backup_code_generated"
	BackupCodeUsed       AuditEventType = "backup_code_used"
	BackupCodeRejected   AuditEventType = "backup_code_rejected"
	LoginSucceeded       AuditEventType = "login_succeeded"
	LoginFailed          AuditEventType = "login_failed"
	FaceProfileReset     AuditEventType = "face_profile_reset"
)

type ClientInfo struct {
	IPAddress string  `bson:"ipAddress" json:"ipAddress"`
	UserAgent string  `bson:"userAgent" json:"userAgent"`
	Device    *string `bson:"device" json:"device,omitempty"`
	Location  *string `bson:"location" json:"location,omitempty"`
}

// AuditEvent is an append-only security record.
type AuditEvent struct {
	Type       AuditEventType `bson:"type" json:"type"`
	AccountID  string         `bson:"accountID" json:"accountID"`
	Channel    *Channel       `bson:"channel" json:"channel,omitempty"`
	Outcome    string         `bson:"outcome" json:"outcome,omitempty"`
	OperatorID *string        `bson:"operatorID" json:"operatorID,omitempty"`
	Client     *ClientInfo    `bson:"client" json:"client,omitempty"`
	Details    map[string]any `bson:"details" json:"details,omitempty"`

	ID         string    `bson:"_id" json:"id"`
	OccurredAt time.Time `bson:"occurredAt" json:"occurredAt"`
}

func (model AuditEvent) ParseModel() any {
	if model.OccurredAt.IsZero() {
		model.OccurredAt = time.Now()
	}
	if model.ID == "" {
		model.ID = utils.GenerateUULDString()
	}
	return &model
}
