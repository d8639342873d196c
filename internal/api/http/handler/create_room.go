package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"wordgame-service/domain"
	httpUsecase "wordgame-service/internal/api/http/usecase"
)

type CreateRoomRequest struct {
	RoomName   string `json:"room_name" validate:"required,max=50"`
	PlayerName string `json:"player_name" validate:"required,max=30"`
	Mode       string `json:"mode" validate:"omitempty,oneof=secret_word public_words"`
}

type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
}

type CreateRoomHandler struct {
	usecase httpUsecase.CreateRoomUseCase
}

func NewCreateRoomHandler(usecase httpUsecase.CreateRoomUseCase) *CreateRoomHandler {
	return &CreateRoomHandler{
		usecase: usecase,
	}
}

func (h *CreateRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *CreateRoomRequest) (*CreateRoomResponse, int, error) {
	m, status, err := h.usecase.Execute(ctx, req.RoomName, req.PlayerName, domain.GameMode(req.Mode))
	if err != nil {
		return nil, status, err
	}
	return &CreateRoomResponse{RoomCode: m.RoomCode, PlayerID: m.PlayerID}, status, nil
}
