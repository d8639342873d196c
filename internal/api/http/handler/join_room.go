package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	httpUsecase "wordgame-service/internal/api/http/usecase"
)

type JoinRoomRequest struct {
	RoomCode   string `params:"room_code" validate:"required"`
	PlayerName string `json:"player_name" validate:"required,max=30"`
}

type JoinRoomResponse struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
}

type JoinRoomHandler struct {
	usecase httpUsecase.JoinRoomUseCase
}

func NewJoinRoomHandler(usecase httpUsecase.JoinRoomUseCase) *JoinRoomHandler {
	return &JoinRoomHandler{
		usecase: usecase,
	}
}

func (h *JoinRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *JoinRoomRequest) (*JoinRoomResponse, int, error) {
	m, status, err := h.usecase.Execute(ctx, req.RoomCode, req.PlayerName)
	if err != nil {
		return nil, status, err
	}
	return &JoinRoomResponse{RoomCode: m.RoomCode, PlayerID: m.PlayerID}, status, nil
}
