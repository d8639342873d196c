package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"wordgame-service/config"
	"wordgame-service/internal/cleanup"
	"wordgame-service/internal/initializer"
	_ "wordgame-service/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	appConfig := config.Read()
	defer zap.L().Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := initializer.InitStore(ctx, appConfig)
	if err != nil {
		zap.L().Error("Failed to initialize store", zap.String("driver", appConfig.Store.Driver), zap.Error(err))
		return 1
	}
	defer st.Close()

	res, err := cleanup.New(st, appConfig.Cleanup.MaxAge).Run(ctx)
	if err != nil {
		zap.L().Error("Cleanup failed", zap.Int("deleted", res.Deleted), zap.Error(err))
		return 1
	}
	return 0
}
