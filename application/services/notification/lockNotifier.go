// Package notification tells account owners about security events.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"facegate.io/entities"
	"facegate.io/infrastructure/logger"
	queue_tasks "facegate.io/infrastructure/message_queue/tasks"
	mq_types "facegate.io/infrastructure/message_queue/types"
)

const accountLockedTemplate = "account_locked"

// LockNotifier queues an email to the owner when a channel locks. Accounts
// without an email address are skipped.
type LockNotifier struct {
	Broker mq_types.TaskQueueBroker
}

func (n *LockNotifier) AccountLocked(ctx context.Context, account *entities.Account, channel entities.Channel, lockedUntil *time.Time) {
	if account.Email == nil || *account.Email == "" {
		return
	}
	opts := map[string]any{
		"Username": account.Username,
		"Channel":  string(channel),
	}
	if lockedUntil != nil {
		opts["LockedUntil"] = lockedUntil.UTC().Format("15:04 MST, 2 Jan 2006")
	}
	payload, err := json.Marshal(queue_tasks.EmailPayload{
		To:       *account.Email,
		Subject:  "We locked sign in on your account",
		Template: accountLockedTemplate,
		Opts:     opts,
	})
	if err != nil {
		logger.Error("could not marshal lock notification", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return
	}
	err = n.Broker.Enqueue(mq_types.QueueTask{
		Name:     queue_tasks.HandleEmailDeliveryTaskName,
		Payload:  payload,
		Priority: mq_types.High,
		MaxRetry: 5,
	})
	if err != nil {
		logger.Error("could not queue lock notification", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "accountID",
			Data: account.ID,
		})
	}
}
