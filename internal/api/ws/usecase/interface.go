package wsUsecase

import (
	"context"

	"wordgame-service/domain"
	"wordgame-service/internal/api/ws/hub"
	"wordgame-service/internal/roomsync"
)

type RoomController interface {
	Resume(ctx context.Context, code, playerID string) (*roomsync.Session, error)
}

type Hub interface {
	Run(ctx context.Context)
	RegisterClient(client *domain.Client, session hub.Session)
	UnregisterClient(client *domain.Client)
}
