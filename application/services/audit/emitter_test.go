package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"facegate.io/entities"
	"facegate.io/infrastructure/database/repository"
	"facegate.io/infrastructure/database/repository/memory"
	mq_types "facegate.io/infrastructure/message_queue/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	mu    sync.Mutex
	tasks []mq_types.QueueTask
	err   error
}

func (f *fakeBroker) Start() {}

func (f *fakeBroker) Enqueue(task mq_types.QueueTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func TestRecorderFillsIdentityAndClient(t *testing.T) {
	rec := &Recorder{}
	client := &entities.ClientInfo{IPAddress: "10.0.0.8", UserAgent: "curl/8"}
	ctx := WithClient(context.Background(), client)

	rec.Emit(ctx, entities.AuditEvent{Type: entities.FaceVerified, AccountID: "acc-1"})

	events := rec.Events()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].OccurredAt.IsZero())
	assert.Equal(t, client, events[0].Client)
	assert.Equal(t, 1, rec.Count(entities.FaceVerified))
}

func TestMultiKeepsOneIdentity(t *testing.T) {
	first, second := &Recorder{}, &Recorder{}
	Multi{first, nil, second, LogEmitter{}}.Emit(context.Background(), entities.AuditEvent{
		Type:      entities.AccountLocked,
		AccountID: "acc-2",
	})

	require.Len(t, first.Events(), 1)
	require.Len(t, second.Events(), 1)
	assert.Equal(t, first.Events()[0].ID, second.Events()[0].ID)
}

func TestQueueEmitter(t *testing.T) {
	broker := &fakeBroker{}
	emitter := NewQueueEmitter(broker)

	ctx, cancel := context.WithCancel(context.Background())
	emitter.Emit(ctx, entities.AuditEvent{Type: entities.BackupCodeUsed, AccountID: "acc-3"})
	// a finished request must not stop delivery
	cancel()
	emitter.Wait()

	require.Len(t, broker.tasks, 1)
	task := broker.tasks[0]
	assert.Equal(t, AuditEventTaskName, task.Name)

	var decoded entities.AuditEvent
	require.NoError(t, json.Unmarshal(task.Payload, &decoded))
	assert.Equal(t, entities.BackupCodeUsed, decoded.Type)
	assert.Equal(t, "acc-3", decoded.AccountID)
}

func TestQueueEmitterSwallowsBrokerErrors(t *testing.T) {
	broker := &fakeBroker{err: errors.New("redis down")}
	emitter := NewQueueEmitter(broker)

	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), entities.AuditEvent{Type: entities.FaceRejected, AccountID: "acc-4"})
		emitter.Wait()
	})
	assert.Empty(t, broker.tasks)
}

func TestStoreEmitterPersistsAfterCancellation(t *testing.T) {
	store := memory.NewAuditEventStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	StoreEmitter{Store: store}.Emit(ctx, entities.AuditEvent{Type: entities.LoginFailed, AccountID: "acc"})

	events, err := store.List(context.Background(), repository.AuditFilter{AccountID: "acc"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].OccurredAt.IsZero())
}
