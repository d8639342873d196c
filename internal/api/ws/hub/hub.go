package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"wordgame-service/domain"
	"wordgame-service/internal/middleware"
	"wordgame-service/internal/roomsync"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	intentTimeout  = 5 * time.Second
	sendBuffer     = 256
)

// Session is the room membership a connection drives.
type Session interface {
	RoomCode() string
	PlayerID() string
	Listen(ctx context.Context, sink func(roomsync.Event)) error
	StartRound(ctx context.Context) error
	NextRound(ctx context.Context) error
	SubmitWord(ctx context.Context, word string) error
	ChoosePublicWord(ctx context.Context, word string) error
	ChooseReplacement(ctx context.Context, index int) error
	Leave(ctx context.Context) error
	Close() error
}

type Config struct {
	MessagesPerSecond int
	Burst             int
}

type member struct {
	client  *domain.Client
	session Session
	limiter *rate.Limiter
}

type Hub struct {
	// roomsClients tracks the members of each room by player id
	roomsClients map[string]map[string]*member

	register   chan *member
	unregister chan *domain.Client
	ctx        context.Context
	cfg        Config
	logger     *zap.Logger

	mutex sync.RWMutex
}

func NewHub(cfg Config, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.L()
	}
	return &Hub{
		roomsClients: make(map[string]map[string]*member),
		register:     make(chan *member),
		unregister:   make(chan *domain.Client),
		ctx:          context.Background(),
		cfg:          cfg,
		logger:       logger,
	}
}

// NewClient builds a client for a connection.
func NewClient(conn *websocket.Conn, roomCode, playerID string) *domain.Client {
	return &domain.Client{
		ID:       playerID,
		RoomCode: roomCode,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Done:     make(chan struct{}),
		Stopped:  make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	h.ctx = ctx
	go func() {
		for {
			select {
			case m := <-h.register:
				if h.registerClient(m) {
					go h.readPump(m)
					go h.writePump(m.client)
				}
			case client := <-h.unregister:
				h.unregisterClient(client)
			case <-ctx.Done():
				h.closeAll()
				return
			}
		}
	}()
}

// RegisterClient hands a connected client and its session to the hub.
func (h *Hub) RegisterClient(client *domain.Client, session Session) {
	m := &member{
		client:  client,
		session: session,
		limiter: middleware.NewMessageLimiter(h.cfg.MessagesPerSecond, h.cfg.Burst),
	}
	select {
	case h.register <- m:
	case <-h.ctx.Done():
		session.Close()
		close(client.Done)
		close(client.Stopped)
	}
}

func (h *Hub) UnregisterClient(client *domain.Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// registerClient replaces an older connection of the same player and
// starts pushing room events to the new one.
func (h *Hub) registerClient(m *member) bool {
	client := m.client
	err := m.session.Listen(h.ctx, func(e roomsync.Event) {
		if err := h.send(client, e); err != nil {
			h.logger.Warn("dropping event", zap.String("room_code", client.RoomCode), zap.String("player_id", client.ID), zap.String("type", string(e.Type)), zap.Error(err))
		}
	})
	if err != nil {
		h.logger.Warn("failed to listen to room", zap.String("room_code", client.RoomCode), zap.Error(err))
		h.sendError(client, err)
		m.session.Close()
		go func() {
			// let the error reach the socket before the handler returns
			h.flush(client)
			close(client.Done)
			close(client.Stopped)
		}()
		return false
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if existing, ok := h.roomsClients[client.RoomCode][client.ID]; ok {
		h.logger.Info("player reconnected, closing old connection", zap.String("room_code", client.RoomCode), zap.String("player_id", client.ID))
		h.dropLocked(existing)
	}
	// dropLocked prunes an emptied room, so look it up afterwards.
	roomClients, ok := h.roomsClients[client.RoomCode]
	if !ok {
		roomClients = make(map[string]*member)
		h.roomsClients[client.RoomCode] = roomClients
	}
	roomClients[client.ID] = m
	h.logger.Debug("client registered", zap.String("room_code", client.RoomCode), zap.String("player_id", client.ID), zap.Int("clients", len(roomClients)))
	return true
}

func (h *Hub) unregisterClient(client *domain.Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	roomClients, ok := h.roomsClients[client.RoomCode]
	if !ok {
		return
	}
	m, ok := roomClients[client.ID]
	if !ok || m.client != client {
		return
	}
	h.dropLocked(m)
	h.logger.Debug("client unregistered", zap.String("room_code", client.RoomCode), zap.String("player_id", client.ID), zap.Int("remaining", len(roomClients)))
}

// dropLocked forgets a member, closes its session and releases the
// connection handler.
func (h *Hub) dropLocked(m *member) {
	roomClients := h.roomsClients[m.client.RoomCode]
	delete(roomClients, m.client.ID)
	if len(roomClients) == 0 {
		delete(h.roomsClients, m.client.RoomCode)
	}
	if err := m.session.Close(); err != nil {
		h.logger.Warn("failed to close session", zap.String("player_id", m.client.ID), zap.Error(err))
	}
	close(m.client.Done)
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, roomClients := range h.roomsClients {
		for _, m := range roomClients {
			h.dropLocked(m)
		}
	}
}

func (h *Hub) GetRoomClientCount(roomCode string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.roomsClients[roomCode])
}

func (h *Hub) IsClientConnected(roomCode, playerID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	_, ok := h.roomsClients[roomCode][playerID]
	return ok
}

// readPump reads intents from the client and applies them to its session.
func (h *Hub) readPump(m *member) {
	client := m.client
	defer h.UnregisterClient(client)

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("client read error", zap.String("player_id", client.ID), zap.Error(err))
			}
			return
		}

		if !m.limiter.Allow() {
			h.sendError(client, fmt.Errorf("%w: rate limit exceeded", domain.ErrConflict))
			continue
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.sendError(client, fmt.Errorf("%w: malformed message", domain.ErrValidation))
			continue
		}

		ctx, cancel := context.WithTimeout(h.ctx, intentTimeout)
		left, err := Dispatch(ctx, m.session, msg)
		cancel()
		if err != nil {
			h.logger.Debug("intent rejected", zap.String("player_id", client.ID), zap.String("type", msg.Type), zap.Error(err))
			h.sendError(client, err)
		}
		if left {
			if err == nil {
				h.send(client, Message{Type: TypeLeft})
			}
			return
		}
	}
}

// writePump writes queued messages and keeps the connection alive.
func (h *Hub) writePump(client *domain.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(client.Stopped)
	}()

	for {
		select {
		case msg := <-client.Send:
			if err := h.write(client, websocket.TextMessage, msg); err != nil {
				h.logger.Debug("websocket write error", zap.String("player_id", client.ID), zap.Error(err))
				h.UnregisterClient(client)
				return
			}

		case <-ticker.C:
			if err := h.write(client, websocket.PingMessage, nil); err != nil {
				h.UnregisterClient(client)
				return
			}

		case <-client.Done:
			h.flush(client)
			h.write(client, websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (h *Hub) write(client *domain.Client, messageType int, data []byte) error {
	client.WriteLock.Lock()
	defer client.WriteLock.Unlock()
	client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return client.Conn.WriteMessage(messageType, data)
}

// flush writes whatever is still queued without blocking.
func (h *Hub) flush(client *domain.Client) {
	for {
		select {
		case msg := <-client.Send:
			if err := h.write(client, websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// send queues a message without blocking; a full queue drops it.
func (h *Hub) send(client *domain.Client, msg any) error {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	select {
	case client.Send <- messageBytes:
		return nil
	default:
		return fmt.Errorf("client send channel is full")
	}
}

func (h *Hub) sendError(client *domain.Client, err error) {
	errorMessage := domain.WebSocketErrorMessage{
		Type:    TypeError,
		Message: err.Error(),
		Code:    domain.StatusCode(err),
	}
	if err := h.send(client, errorMessage); err != nil {
		h.logger.Warn("failed to send error message", zap.String("player_id", client.ID), zap.Error(err))
	}
}
