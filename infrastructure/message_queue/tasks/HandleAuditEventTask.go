package queue_tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"facegate.io/entities"
	"facegate.io/infrastructure/logger"
	"github.com/hibiken/asynq"
)

type AuditEventAppender interface {
	Append(ctx context.Context, event *entities.AuditEvent) error
}

// HandleAuditEventTask persists one audit event. Stores ignore a repeated ID
// so a retried task does not write the event twice.
func HandleAuditEventTask(store AuditEventAppender) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var event entities.AuditEvent
		if err := json.Unmarshal(t.Payload(), &event); err != nil {
			logger.Error("an error occured while unmarshalling audit event payload", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			})
			return fmt.Errorf("%w: %s", asynq.SkipRetry, err.Error())
		}
		if err := store.Append(ctx, &event); err != nil {
			logger.Error("could not persist audit event", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			}, logger.LoggerOptions{
				Key:  "eventID",
				Data: event.ID,
			})
			return err
		}
		return nil
	}
}
