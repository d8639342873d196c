package httpUsecase

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"wordgame-service/domain"
)

type CreateRoomUseCase interface {
	Execute(ctx context.Context, roomName, playerName string, mode domain.GameMode) (Membership, int, error)
}

type createRoomUseCase struct {
	controller RoomController
}

func NewCreateRoomUseCase(controller RoomController) CreateRoomUseCase {
	return &createRoomUseCase{
		controller: controller,
	}
}

func (u *createRoomUseCase) Execute(ctx context.Context, roomName, playerName string, mode domain.GameMode) (Membership, int, error) {
	session, err := u.controller.CreateRoom(ctx, roomName, playerName, mode)
	if err != nil {
		return Membership{}, domain.StatusCode(err), err
	}
	m := release(session)
	zap.L().Info("room created over http", zap.String("room_code", m.RoomCode), zap.String("player_id", m.PlayerID))
	return m, http.StatusCreated, nil
}
