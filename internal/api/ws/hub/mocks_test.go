package hub

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wordgame-service/internal/roomsync"
)

type MockSession struct {
	mock.Mock
	sink func(roomsync.Event)
}

func (m *MockSession) RoomCode() string {
	return m.Called().String(0)
}

func (m *MockSession) PlayerID() string {
	return m.Called().String(0)
}

func (m *MockSession) Listen(ctx context.Context, sink func(roomsync.Event)) error {
	m.sink = sink
	return m.Called(ctx, sink).Error(0)
}

func (m *MockSession) StartRound(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSession) NextRound(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSession) SubmitWord(ctx context.Context, word string) error {
	return m.Called(ctx, word).Error(0)
}

func (m *MockSession) ChoosePublicWord(ctx context.Context, word string) error {
	return m.Called(ctx, word).Error(0)
}

func (m *MockSession) ChooseReplacement(ctx context.Context, index int) error {
	return m.Called(ctx, index).Error(0)
}

func (m *MockSession) Leave(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSession) Close() error {
	return m.Called().Error(0)
}
