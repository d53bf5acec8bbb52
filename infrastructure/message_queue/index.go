package messagequeue

import (
	mq_types "facegate.io/infrastructure/message_queue/types"
)

var TaskQueue mq_types.TaskQueueBroker

func StartQueue() {
	if TaskQueue == nil {
		return
	}
	go TaskQueue.Start()
}
