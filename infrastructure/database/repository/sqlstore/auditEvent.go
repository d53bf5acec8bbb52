package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"facegate.io/entities"
	"facegate.io/infrastructure/database/repository"
)

type AuditEventStore struct {
	db *DB
}

func NewAuditEventStore(db *DB) *AuditEventStore {
	return &AuditEventStore{db: db}
}

func marshalNullable(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func (s *AuditEventStore) Append(ctx context.Context, event *entities.AuditEvent) error {
	client, err := marshalNullable(event.Client, event.Client != nil)
	if err != nil {
		return err
	}
	details, err := marshalNullable(event.Details, len(event.Details) > 0)
	if err != nil {
		return err
	}
	var channel *string
	if event.Channel != nil {
		c := string(*event.Channel)
		channel = &c
	}
	// redelivered tasks carry the same ID
	_, err = s.db.exec(ctx, `INSERT INTO audit_events (id, type, account_id, channel, outcome, operator_id, client, details, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		event.ID, string(event.Type), event.AccountID, nullString(channel), event.Outcome,
		nullString(event.OperatorID), client, details, micros(event.OccurredAt))
	return err
}

func (s *AuditEventStore) List(ctx context.Context, filter repository.AuditFilter) ([]entities.AuditEvent, error) {
	clauses := []string{}
	args := []any{}
	if filter.AccountID != "" {
		clauses = append(clauses, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Since != nil {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, micros(*filter.Since))
	}
	query := `SELECT id, type, account_id, channel, outcome, operator_id, client, details, occurred_at FROM audit_events`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY occurred_at DESC, id DESC LIMIT ?"
	args = append(args, filter.PageSize())

	rows, err := s.db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entities.AuditEvent{}
	for rows.Next() {
		var (
			event                      entities.AuditEvent
			eventType                  string
			channel, outcome, operator sql.NullString
			client, details            sql.NullString
			occurredAt                 int64
		)
		if err := rows.Scan(&event.ID, &eventType, &event.AccountID, &channel, &outcome, &operator, &client, &details, &occurredAt); err != nil {
			return nil, err
		}
		event.Type = entities.AuditEventType(eventType)
		if channel.Valid {
			c := entities.Channel(channel.String)
			event.Channel = &c
		}
		event.Outcome = outcome.String
		event.OperatorID = stringPointer(operator)
		if client.Valid {
			event.Client = &entities.ClientInfo{}
			if err := json.Unmarshal([]byte(client.String), event.Client); err != nil {
				return nil, err
			}
		}
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &event.Details); err != nil {
				return nil, err
			}
		}
		event.OccurredAt = fromMicros(occurredAt)
		out = append(out, event)
	}
	return out, rows.Err()
}
