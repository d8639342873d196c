package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	httpUsecase "wordgame-service/internal/api/http/usecase"
)

type LeaveRoomRequest struct {
	RoomCode string `params:"room_code" validate:"required"`
	PlayerID string `reqHeader:"X-Player-ID" validate:"required"`
}

type LeaveRoomResponse struct {
	Message string `json:"message"`
}

type LeaveRoomHandler struct {
	usecase httpUsecase.LeaveRoomUseCase
}

func NewLeaveRoomHandler(usecase httpUsecase.LeaveRoomUseCase) *LeaveRoomHandler {
	return &LeaveRoomHandler{
		usecase: usecase,
	}
}

func (h *LeaveRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *LeaveRoomRequest) (*LeaveRoomResponse, int, error) {
	status, err := h.usecase.Execute(ctx, req.RoomCode, req.PlayerID)
	if err != nil {
		return nil, status, err
	}
	return &LeaveRoomResponse{Message: "left room"}, status, nil
}
