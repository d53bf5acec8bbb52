package cache

import (
	"context"
	"time"

	"facegate.io/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

var (
	Client *redis.Client
)

func ConnectToCache(addr string, password string) error {
	opt := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
		PoolSize: 10,
	}
	Client = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Client.Ping(ctx).Err(); err != nil {
		logger.Error("could not reach redis", logger.LoggerOptions{Key: "error", Data: err})
		return err
	}
	logger.Info("connected to redis successfully")
	return nil
}
