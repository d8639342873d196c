package initializer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wordgame-service/config"
	"wordgame-service/infra/memory"
	"wordgame-service/infra/postgres"
	redisStore "wordgame-service/infra/redis"
	"wordgame-service/internal/store"
)

// Store is a backend that owns connections.
type Store interface {
	store.Store
	Close() error
}

// InitStore opens the backend named by store.driver.
func InitStore(ctx context.Context, appConfig config.Config) (Store, error) {
	switch appConfig.Store.Driver {
	case config.DriverMemory, "":
		zap.L().Warn("using in-memory store, rooms are not shared between instances")
		return memory.New(), nil

	case config.DriverRedis:
		client, err := redisStore.NewClient(ctx, appConfig.Redis.Addr(), appConfig.Redis.Password, appConfig.Redis.DB)
		if err != nil {
			return nil, err
		}
		return redisStore.NewStore(client, redisStore.WithPrefix(appConfig.Redis.Prefix)), nil

	case config.DriverPostgres:
		return postgres.Open(appConfig.Postgres.ConnString())

	default:
		return nil, fmt.Errorf("unknown store driver %q", appConfig.Store.Driver)
	}
}
