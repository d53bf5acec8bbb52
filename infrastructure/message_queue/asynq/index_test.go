package asynq

import (
	"testing"

	mq_types "facegate.io/infrastructure/message_queue/types"
	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueLandsOnPriorityQueue(t *testing.T) {
	server := miniredis.RunT(t)
	broker := NewAsynqBroker(server.Addr(), "")
	defer broker.Client.Close()

	require.NoError(t, broker.Enqueue(mq_types.QueueTask{
		Name:     "record_audit_event",
		Payload:  []byte(`{"type":"account_locked"}`),
		Priority: mq_types.High,
	}))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: server.Addr()})
	defer inspector.Close()
	tasks, err := inspector.ListPendingTasks(string(mq_types.High))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "record_audit_event", tasks[0].Type)
	assert.Equal(t, 10, tasks[0].MaxRetry)
}
