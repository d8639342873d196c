package bootstrap

import (
	"context"

	"wordgame-service/config"
	"wordgame-service/domain"
	"wordgame-service/internal/api/ws/hub"
	"wordgame-service/internal/initializer"
)

type Hub interface {
	Run(ctx context.Context)
	RegisterClient(client *domain.Client, session hub.Session)
	UnregisterClient(client *domain.Client)
	GetRoomClientCount(roomCode string) int
}

func InitWebsocket(ctx context.Context, config config.Config) Hub {
	return initializer.InitWebsocket(ctx, config)
}
