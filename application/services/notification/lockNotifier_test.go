package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"facegate.io/application/utils"
	"facegate.io/entities"
	queue_tasks "facegate.io/infrastructure/message_queue/tasks"
	mq_types "facegate.io/infrastructure/message_queue/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	tasks []mq_types.QueueTask
}

func (f *fakeBroker) Start() {}

func (f *fakeBroker) Enqueue(task mq_types.QueueTask) error {
	f.tasks = append(f.tasks, task)
	return nil
}

func TestLockNotifierQueuesEmail(t *testing.T) {
	broker := &fakeBroker{}
	notifier := &LockNotifier{Broker: broker}
	until := time.Date(2024, 6, 1, 9, 15, 0, 0, time.UTC)

	notifier.AccountLocked(context.Background(), &entities.Account{
		ID:       "acc",
		Username: "alice",
		Email:    utils.GetStringPointer("alice@example.com"),
	}, entities.FaceChannel, &until)

	require.Len(t, broker.tasks, 1)
	task := broker.tasks[0]
	assert.Equal(t, queue_tasks.HandleEmailDeliveryTaskName, task.Name)
	assert.Equal(t, mq_types.High, task.Priority)

	var payload queue_tasks.EmailPayload
	require.NoError(t, json.Unmarshal(task.Payload, &payload))
	assert.Equal(t, "alice@example.com", payload.To)
	assert.Equal(t, "account_locked", payload.Template)
	assert.Equal(t, "face", payload.Opts["Channel"])
	assert.Equal(t, "09:15 UTC, 1 Jun 2024", payload.Opts["LockedUntil"])
}

func TestLockNotifierSkipsAccountsWithoutEmail(t *testing.T) {
	broker := &fakeBroker{}
	notifier := &LockNotifier{Broker: broker}
	notifier.AccountLocked(context.Background(), &entities.Account{ID: "acc", Username: "bob"}, entities.PasswordChannel, nil)
	assert.Empty(t, broker.tasks)
}
