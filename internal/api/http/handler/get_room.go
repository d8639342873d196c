package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	httpUsecase "wordgame-service/internal/api/http/usecase"
	"wordgame-service/internal/roomsync"
)

type GetRoomRequest struct {
	RoomCode string `params:"room_code" validate:"required"`
	PlayerID string `reqHeader:"X-Player-ID" validate:"required"`
}

type GetRoomHandler struct {
	usecase httpUsecase.GetRoomUseCase
}

func NewGetRoomHandler(usecase httpUsecase.GetRoomUseCase) *GetRoomHandler {
	return &GetRoomHandler{
		usecase: usecase,
	}
}

func (h *GetRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *GetRoomRequest) (*roomsync.RoomView, int, error) {
	view, status, err := h.usecase.Execute(ctx, req.RoomCode, req.PlayerID)
	if err != nil {
		return nil, status, err
	}
	return &view, status, nil
}
