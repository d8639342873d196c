package wsHandler

import (
	"context"

	"github.com/gofiber/contrib/websocket"

	wsUsecase "wordgame-service/internal/api/ws/usecase"
)

// WebSocketRoomHandler runs one player's realtime session in a room.
type WebSocketRoomHandler struct {
	usecase wsUsecase.RoomConnectUseCase
}

type WebSocketRoomRequest struct {
	RoomCode string `params:"room_code" validate:"required"`
	PlayerID string `query:"player_id" validate:"required"`
}

func NewWebSocketRoomHandler(usecase wsUsecase.RoomConnectUseCase) *WebSocketRoomHandler {
	return &WebSocketRoomHandler{
		usecase: usecase,
	}
}

func (h *WebSocketRoomHandler) HandleWS(c *websocket.Conn, ctx context.Context, req *WebSocketRoomRequest) {
	h.usecase.Execute(c, ctx, req.RoomCode, req.PlayerID)
}
