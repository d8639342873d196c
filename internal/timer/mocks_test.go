package timer

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockTickerCreator struct {
	mock.Mock
}

func (m *MockTickerCreator) Create(d time.Duration) (<-chan time.Time, func()) {
	args := m.Called(d)
	return args.Get(0).(chan time.Time), args.Get(1).(func())
}
