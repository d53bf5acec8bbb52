package audit

import (
	"context"
	"encoding/json"
	"sync"

	"facegate.io/entities"
	"facegate.io/infrastructure/logger"
	mq_types "facegate.io/infrastructure/message_queue/types"
)

var AuditEventTaskName mq_types.Queues = "record_audit_event"

// QueueEmitter hands events to the task queue without blocking the request.
// A worker persists them (see message_queue/tasks).
type QueueEmitter struct {
	Broker mq_types.TaskQueueBroker

	wg sync.WaitGroup
}

func NewQueueEmitter(broker mq_types.TaskQueueBroker) *QueueEmitter {
	return &QueueEmitter{Broker: broker}
}

func (q *QueueEmitter) Emit(ctx context.Context, event entities.AuditEvent) {
	event = normalise(ctx, event)
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("could not marshal audit event", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "type",
			Data: event.Type,
		})
		return
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		err := q.Broker.Enqueue(mq_types.QueueTask{
			Name:     AuditEventTaskName,
			Payload:  payload,
			Priority: mq_types.Medium,
			MaxRetry: 5,
		})
		if err != nil {
			logger.Error("failed to enqueue audit event", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			}, logger.LoggerOptions{
				Key:  "eventID",
				Data: event.ID,
			})
		}
	}()
}

// Wait blocks until every pending enqueue has returned.
func (q *QueueEmitter) Wait() {
	q.wg.Wait()
}
