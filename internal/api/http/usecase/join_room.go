package httpUsecase

import (
	"context"
	"errors"
	"net/http"

	"wordgame-service/domain"
)

type JoinRoomUseCase interface {
	Execute(ctx context.Context, roomCode, playerName string) (Membership, int, error)
}

type joinRoomUseCase struct {
	controller RoomController
}

func NewJoinRoomUseCase(controller RoomController) JoinRoomUseCase {
	return &joinRoomUseCase{
		controller: controller,
	}
}

func (u *joinRoomUseCase) Execute(ctx context.Context, roomCode, playerName string) (Membership, int, error) {
	session, err := u.controller.JoinRoom(ctx, roomCode, playerName)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return Membership{}, http.StatusBadRequest, err

		case errors.Is(err, domain.ErrNotFound):
			return Membership{}, http.StatusNotFound, err

		case errors.Is(err, domain.ErrConflict):
			return Membership{}, http.StatusConflict, err

		default:
			return Membership{}, domain.StatusCode(err), err
		}
	}
	return release(session), http.StatusCreated, nil
}
