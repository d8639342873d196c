package wsUsecase

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"wordgame-service/domain"
	"wordgame-service/internal/api/ws/hub"
)

type RoomConnectUseCase interface {
	Execute(c *websocket.Conn, ctx context.Context, roomCode, playerID string)
}

type roomConnectUseCase struct {
	hub        Hub
	controller RoomController
}

func NewRoomConnectUseCase(hub Hub, controller RoomController) RoomConnectUseCase {
	return &roomConnectUseCase{
		hub:        hub,
		controller: controller,
	}
}

// Execute binds the connection to the player's membership and blocks
// until the hub lets go of it.
func (u *roomConnectUseCase) Execute(c *websocket.Conn, ctx context.Context, roomCode, playerID string) {
	session, err := u.controller.Resume(ctx, roomCode, playerID)
	if err != nil {
		errorMessage := domain.WebSocketErrorMessage{
			Type:    hub.TypeError,
			Message: err.Error(),
			Code:    domain.StatusCode(err),
		}
		if err := c.WriteJSON(errorMessage); err != nil {
			zap.L().Warn("Failed to send error message to client", zap.Error(err))
		}
		return
	}

	client := hub.NewClient(c, session.RoomCode(), playerID)
	u.hub.RegisterClient(client, session)
	zap.L().Info("player connected", zap.String("room_code", client.RoomCode), zap.String("player_id", playerID))

	<-client.Done
	<-client.Stopped
	zap.L().Info("player disconnected", zap.String("room_code", client.RoomCode), zap.String("player_id", playerID))
}
