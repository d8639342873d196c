package initializer

import (
	"context"

	"go.uber.org/zap"

	"wordgame-service/config"
	gameHub "wordgame-service/internal/api/ws/hub"
)

func InitWebsocket(ctx context.Context, appConfig config.Config) *gameHub.Hub {
	hub := gameHub.NewHub(gameHub.Config{
		MessagesPerSecond: appConfig.RateLimit.WSMessagesPerSecond,
		Burst:             appConfig.RateLimit.WSBurst,
	}, zap.L())
	hub.Run(ctx)
	return hub
}
