package httpUsecase

import (
	"context"
	"net/http"

	"wordgame-service/domain"
	"wordgame-service/internal/roomsync"
)

type GetRoomUseCase interface {
	Execute(ctx context.Context, roomCode, playerID string) (roomsync.RoomView, int, error)
}

type getRoomUseCase struct {
	controller RoomController
}

func NewGetRoomUseCase(controller RoomController) GetRoomUseCase {
	return &getRoomUseCase{
		controller: controller,
	}
}

func (u *getRoomUseCase) Execute(ctx context.Context, roomCode, playerID string) (roomsync.RoomView, int, error) {
	view, err := u.controller.View(ctx, roomCode, playerID)
	if err != nil {
		return roomsync.RoomView{}, domain.StatusCode(err), err
	}
	return view, http.StatusOK, nil
}
