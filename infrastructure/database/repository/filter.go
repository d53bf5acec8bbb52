package repository

import (
	"time"

	"facegate.io/entities"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

// AuditFilter narrows an audit listing. Zero values mean "any".
type AuditFilter struct {
	AccountID string
	Type      entities.AuditEventType
	Since     *time.Time
	Limit     int
}

func (f AuditFilter) PageSize() int {
	if f.Limit <= 0 {
		return defaultAuditPageSize
	}
	if f.Limit > maxAuditPageSize {
		return maxAuditPageSize
	}
	return f.Limit
}

func (f AuditFilter) Matches(event *entities.AuditEvent) bool {
	if f.AccountID != "" && event.AccountID != f.AccountID {
		return false
	}
	if f.Type != "" && event.Type != f.Type {
		return false
	}
	if f.Since != nil && event.OccurredAt.Before(*f.Since) {
		return false
	}
	return true
}
