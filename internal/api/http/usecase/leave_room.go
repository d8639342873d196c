package httpUsecase

import (
	"context"
	"net/http"

	"wordgame-service/domain"
)

type LeaveRoomUseCase interface {
	Execute(ctx context.Context, roomCode, playerID string) (int, error)
}

type leaveRoomUseCase struct {
	controller RoomController
}

func NewLeaveRoomUseCase(controller RoomController) LeaveRoomUseCase {
	return &leaveRoomUseCase{
		controller: controller,
	}
}

func (u *leaveRoomUseCase) Execute(ctx context.Context, roomCode, playerID string) (int, error) {
	session, err := u.controller.Resume(ctx, roomCode, playerID)
	if err != nil {
		return domain.StatusCode(err), err
	}
	if err := session.Leave(ctx); err != nil {
		return domain.StatusCode(err), err
	}
	return http.StatusOK, nil
}
