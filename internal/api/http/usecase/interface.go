package httpUsecase

import (
	"context"

	"wordgame-service/domain"
	"wordgame-service/internal/roomsync"
)

type RoomController interface {
	CreateRoom(ctx context.Context, roomName, playerName string, mode domain.GameMode) (*roomsync.Session, error)
	JoinRoom(ctx context.Context, code, playerName string) (*roomsync.Session, error)
	Resume(ctx context.Context, code, playerID string) (*roomsync.Session, error)
	View(ctx context.Context, code, viewerID string) (roomsync.RoomView, error)
}

// Membership identifies a player inside a room.
type Membership struct {
	RoomCode string
	PlayerID string
}

// release closes a session that was only needed for one request.
func release(session *roomsync.Session) Membership {
	m := Membership{RoomCode: session.RoomCode(), PlayerID: session.PlayerID()}
	session.Close()
	return m
}
