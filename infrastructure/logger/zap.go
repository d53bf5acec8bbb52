package logger

import (
	"os"

	"go.uber.org/zap"
)

// Logger is a no-op until InitializeLogger runs so packages can log from tests.
var Logger = zap.NewNop()

func InitializeLogger() {
	var (
		l   *zap.Logger
		err error
	)
	if os.Getenv("GIN_MODE") == "release" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	Logger = l.With(zap.String("service", "facegate"))
}

func Sync() {
	_ = Logger.Sync()
}
