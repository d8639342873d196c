// Package roomsync connects player intents to the shared store and turns
// store notifications back into room events for one player session.
package roomsync

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wordgame-service/domain"
	"wordgame-service/internal/round"
	"wordgame-service/internal/store"
	"wordgame-service/internal/timer"
	"wordgame-service/internal/words"
)

const (
	RoomCodeLength   = 6
	roomCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxCodeAttempts  = 5
)

type Config struct {
	Rules        round.Rules
	DefaultMode  domain.GameMode
	TickInterval time.Duration
}

type Controller struct {
	store   store.Store
	planner *round.Planner
	cfg     Config

	now     func() time.Time
	tickers timer.TickerCreator
	codes   func() string
	ids     func() string
	logger  *zap.Logger
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithTickers(t timer.TickerCreator) Option {
	return func(c *Controller) { c.tickers = t }
}

func WithCodeGenerator(gen func() string) Option {
	return func(c *Controller) { c.codes = gen }
}

func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) { c.ids = gen }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func NewController(st store.Store, pool *words.Pool, cfg Config, opts ...Option) *Controller {
	if cfg.Rules.MinPlayers == 0 {
		cfg.Rules = round.DefaultRules()
	}
	if !cfg.DefaultMode.Valid() {
		cfg.DefaultMode = domain.ModeSecretWord
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	c := &Controller{
		store:   st,
		planner: round.NewPlanner(pool, cfg.Rules),
		cfg:     cfg,
		now:     time.Now,
		tickers: timer.NewTickerCreator(),
		codes:   randomCodes(),
		ids:     uuid.NewString,
		logger:  zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func randomCodes() func() string {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		b := make([]byte, RoomCodeLength)
		for i := range b {
			b[i] = roomCodeAlphabet[rng.Intn(len(roomCodeAlphabet))]
		}
		return string(b)
	}
}

func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != RoomCodeLength {
		return "", fmt.Errorf("%w: room code must be %d characters", domain.ErrValidation, RoomCodeLength)
	}
	for _, r := range code {
		if !strings.ContainsRune(roomCodeAlphabet, r) {
			return "", fmt.Errorf("%w: room code must be alphanumeric", domain.ErrValidation)
		}
	}
	return code, nil
}

func playerRecord(id, name string, isHost bool) map[string]any {
	return map[string]any{
		"id":       id,
		"name":     name,
		"isHost":   isHost,
		"joinedAt": store.ServerTimestamp,
	}
}

func (c *Controller) CreateRoom(ctx context.Context, roomName, playerName string, mode domain.GameMode) (*Session, error) {
	roomName = strings.TrimSpace(roomName)
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, fmt.Errorf("%w: player name is required", domain.ErrValidation)
	}
	if roomName == "" {
		roomName = playerName + "'s room"
	}
	if mode == "" {
		mode = c.cfg.DefaultMode
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown game mode %q", domain.ErrValidation, mode)
	}

	code, err := c.freeCode(ctx)
	if err != nil {
		return nil, err
	}

	playerID := c.ids()
	room := map[string]any{
		"code":      code,
		"name":      roomName,
		"hostId":    playerID,
		"status":    domain.StatusWaiting,
		"mode":      mode,
		"createdAt": store.ServerTimestamp,
		"players": map[string]any{
			playerID: playerRecord(playerID, playerName, true),
		},
	}
	if err := c.store.Set(ctx, store.RoomPath(code), room); err != nil {
		return nil, storeErr("create room", store.RoomPath(code), err)
	}

	c.logger.Info("room created", zap.String("room_code", code), zap.String("player_id", playerID), zap.String("mode", string(mode)))
	return c.newSession(code, playerID, playerName), nil
}

func (c *Controller) freeCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := c.codes()
		snap, err := c.store.Once(ctx, store.RoomPath(code))
		if err != nil {
			return "", storeErr("read", store.RoomPath(code), err)
		}
		if !snap.Exists() {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a room code", domain.ErrConflict)
}

func (c *Controller) JoinRoom(ctx context.Context, code, playerName string) (*Session, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, fmt.Errorf("%w: player name is required", domain.ErrValidation)
	}

	room, err := c.LoadRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.Status != domain.StatusWaiting {
		return nil, fmt.Errorf("%w: game already started in room %s", domain.ErrConflict, code)
	}
	if room.PlayerCount() >= c.cfg.Rules.MaxPlayers {
		return nil, fmt.Errorf("%w: room %s is full", domain.ErrConflict, code)
	}

	playerID := c.ids()
	if err := c.store.Set(ctx, store.PlayerPath(code, playerID), playerRecord(playerID, playerName, false)); err != nil {
		return nil, storeErr("join", store.PlayerPath(code, playerID), err)
	}

	c.logger.Info("player joined", zap.String("room_code", code), zap.String("player_id", playerID))
	return c.newSession(code, playerID, playerName), nil
}

// Resume attaches a new session to an existing membership, for example
// when a websocket reconnects.
func (c *Controller) Resume(ctx context.Context, code, playerID string) (*Session, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	room, err := c.LoadRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if !room.HasPlayer(playerID) {
		return nil, fmt.Errorf("%w: player %s is not in room %s", domain.ErrNotFound, playerID, code)
	}
	return c.newSession(code, playerID, room.Players[playerID].Name), nil
}

// LoadRoom reads the current room document.
func (c *Controller) LoadRoom(ctx context.Context, code string) (*domain.Room, error) {
	path := store.RoomPath(code)
	snap, err := c.store.Once(ctx, path)
	if err != nil {
		return nil, storeErr("read", path, err)
	}
	if !snap.Exists() {
		return nil, fmt.Errorf("%w: room %s", domain.ErrNotFound, code)
	}
	var room domain.Room
	if err := snap.Decode(&room); err != nil {
		return nil, storeErr("decode", path, err)
	}
	if room.Code == "" {
		room.Code = code
	}
	return &room, nil
}

// View returns the room as the given player sees it.
func (c *Controller) View(ctx context.Context, code, viewerID string) (RoomView, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return RoomView{}, err
	}
	room, err := c.LoadRoom(ctx, code)
	if err != nil {
		return RoomView{}, err
	}
	if !room.HasPlayer(viewerID) {
		return RoomView{}, fmt.Errorf("%w: player %s is not in room %s", domain.ErrForbidden, viewerID, code)
	}
	return BuildView(room, viewerID, c.nowMillis()), nil
}

func (c *Controller) nowMillis() int64 {
	return c.now().UnixMilli()
}

func storeErr(op, path string, err error) error {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrStore) {
		return err
	}
	return domain.StoreError(op, path, err)
}
