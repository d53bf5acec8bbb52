package infrastructure

import (
	"context"

	"facegate.io/infrastructure/env"
	messagequeue "facegate.io/infrastructure/message_queue"
	startup "facegate.io/infrastructure/startUp"
)

func StartServer() error {
	config, err := env.Load()
	if err != nil {
		return err
	}
	services, err := startup.StartServices(context.Background(), config)
	if err != nil {
		return err
	}
	defer services.CleanUp()

	messagequeue.StartQueue()
	server := &ginServer{services: services}
	server.Start()
	return nil
}
