package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"wordgame-service/config"
	"wordgame-service/internal/initializer"
	"wordgame-service/internal/roomsync"
	"wordgame-service/internal/store"
)

type Store interface {
	store.Store
	Close() error
}

func InitStore(ctx context.Context, config config.Config) Store {
	st, err := initializer.InitStore(ctx, config)
	if err != nil {
		zap.L().Fatal("Failed to initialize store", zap.String("driver", config.Store.Driver), zap.Error(err))
	}
	return st
}

func InitController(st store.Store, config config.Config) *roomsync.Controller {
	return initializer.InitController(st, config)
}
