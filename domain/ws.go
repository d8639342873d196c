package domain

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

type WebSocketErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// Client is one websocket connection bound to a room membership.
type Client struct {
	ID        string
	RoomCode  string
	Send      chan []byte
	Conn      *websocket.Conn
	WriteLock sync.Mutex
	Done      chan struct{}
	// Stopped is closed once nothing writes to Conn anymore.
	Stopped chan struct{}
}
