package queue_tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"facegate.io/infrastructure/logger"
	mq_types "facegate.io/infrastructure/message_queue/types"
	"facegate.io/infrastructure/messaging/emails"
	"github.com/hibiken/asynq"
)

var HandleEmailDeliveryTaskName mq_types.Queues = "send_email"

type EmailPayload struct {
	To       string
	Subject  string
	Template string
	Opts     map[string]any
}

func HandleEmailDeliveryTask(sender emails.EmailServiceType) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload EmailPayload
		err := json.Unmarshal(t.Payload(), &payload)
		if err != nil {
			logger.Error("an error occured while unmarshalling email queue payload", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			})
			return fmt.Errorf("%w: %s", asynq.SkipRetry, err.Error())
		}
		success := sender.SendEmail(payload.To, payload.Subject, payload.Template, payload.Opts)
		if !success {
			logger.Error("failed to send email", logger.LoggerOptions{
				Key:  "templateName",
				Data: payload.Template,
			})
			return fmt.Errorf("failed to send %s email", payload.Template)
		}
		return nil
	}
}
