package asynq

import (
	"time"

	"facegate.io/infrastructure/logger"
	mq_types "facegate.io/infrastructure/message_queue/types"
	"github.com/hibiken/asynq"
)

type AsynqBroker struct {
	Client *asynq.Client

	redis    asynq.RedisClientOpt
	handlers map[mq_types.Queues]asynq.HandlerFunc
	server   *asynq.Server
}

func NewAsynqBroker(redisAddr string, redisPassword string) *AsynqBroker {
	opt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
	}
	return &AsynqBroker{
		Client:   asynq.NewClient(opt),
		redis:    opt,
		handlers: map[mq_types.Queues]asynq.HandlerFunc{},
	}
}

// Handle registers the worker for a task name. Call before Start.
func (aq *AsynqBroker) Handle(name mq_types.Queues, handler asynq.HandlerFunc) {
	aq.handlers[name] = handler
}

// Start runs the worker server until Shutdown; it blocks.
func (aq *AsynqBroker) Start() {
	aq.server = asynq.NewServer(
		aq.redis,
		asynq.Config{
			Concurrency: 50,
			Queues: map[string]int{
				string(mq_types.High):   7,
				string(mq_types.Medium): 2,
				string(mq_types.Low):    1,
			},
		},
	)

	mux := asynq.NewServeMux()
	for name, handler := range aq.handlers {
		mux.HandleFunc(string(name), handler)
	}

	if err := aq.server.Run(mux); err != nil {
		logger.Error("asynq server stopped", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
	}
}

func (aq *AsynqBroker) Enqueue(task mq_types.QueueTask) error {
	if task.TimeOut == 0 {
		task.TimeOut = 60
	}
	if task.MaxRetry == 0 {
		task.MaxRetry = 10
	}
	if task.Priority == "" {
		task.Priority = mq_types.Medium
	}
	_, err := aq.Client.Enqueue(asynq.NewTask(string(task.Name), task.Payload),
		asynq.ProcessIn(task.ProcessIn*time.Second),
		asynq.MaxRetry(task.MaxRetry),
		asynq.Timeout(time.Second*task.TimeOut),
		asynq.Queue(string(task.Priority)))
	return err
}

func (aq *AsynqBroker) Shutdown() {
	if aq.server != nil {
		aq.server.Shutdown()
	}
	aq.Client.Close()
}
