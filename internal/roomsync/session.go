package roomsync

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"

	"wordgame-service/domain"
	"wordgame-service/internal/round"
	"wordgame-service/internal/store"
	"wordgame-service/internal/timer"
)

const (
	topicRoom        = "room"
	topicSubmissions = "submissions"
)

// Session is one player's membership in one room. Store callbacks and
// countdown ticks are handled one at a time. The sink is called with the
// session lock held and must not block.
type Session struct {
	c          *Controller
	code       string
	playerID   string
	playerName string

	mu          sync.Mutex
	room        *domain.Room
	phase       round.Phase
	subs        map[string]store.Subscription
	sink        func(Event)
	countdown   *timer.Countdown
	timerGen    uint64
	timerStart  int64
	revealRound int
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
}

func (c *Controller) newSession(code, playerID, playerName string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		c:          c,
		code:       code,
		playerID:   playerID,
		playerName: playerName,
		subs:       make(map[string]store.Subscription),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Session) RoomCode() string { return s.code }
func (s *Session) PlayerID() string { return s.playerID }

func (s *Session) logger() *zap.Logger {
	return s.c.logger.With(zap.String("room_code", s.code), zap.String("player_id", s.playerID))
}

// Listen subscribes to the room and its submissions. Calling it again
// replaces the previous subscriptions.
func (s *Session) Listen(ctx context.Context, sink func(Event)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("%w: session closed", domain.ErrConflict)
	}
	s.sink = sink
	s.mu.Unlock()

	if err := s.subscribe(ctx, topicRoom, store.RoomPath(s.code), s.onRoom); err != nil {
		return err
	}
	if err := s.subscribe(ctx, topicSubmissions, store.SubmissionsPath(s.code), s.onSubmissions); err != nil {
		s.mu.Lock()
		s.unsubscribeLocked(topicRoom)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Session) subscribe(ctx context.Context, topic, path string, fn store.Listener) error {
	sub, err := s.c.store.On(ctx, path, fn)
	if err != nil {
		return storeErr("subscribe", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.Join(fmt.Errorf("%w: session closed", domain.ErrConflict), sub.Unsubscribe())
	}
	s.unsubscribeLocked(topic)
	s.subs[topic] = sub
	return nil
}

func (s *Session) unsubscribeLocked(topic string) error {
	sub, ok := s.subs[topic]
	if !ok {
		return nil
	}
	delete(s.subs, topic)
	return sub.Unsubscribe()
}

func (s *Session) emit(e Event) {
	if s.sink != nil {
		s.sink(e)
	}
}

func (s *Session) view() RoomView {
	return BuildView(s.room, s.playerID, s.c.nowMillis())
}

func (s *Session) onRoom(snap store.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if !snap.Exists() {
		s.stopCountdownLocked()
		s.room = nil
		s.emit(Event{Type: EventRoomClosed})
		return
	}

	var room domain.Room
	if err := snap.Decode(&room); err != nil {
		s.logger().Error("failed to decode room", zap.Error(err))
		return
	}
	if room.Code == "" {
		room.Code = s.code
	}

	prev := s.room
	prevPhase := s.phase
	s.room = &room
	s.phase = round.PhaseOf(&room)

	emitted := false
	if prev == nil || !reflect.DeepEqual(prev.Players, room.Players) || prev.HostID != room.HostID {
		s.emit(Event{Type: EventPlayersUpdated, Payload: s.view()})
		emitted = true
	}

	switch s.phase {
	case round.Playing:
		if prev == nil || prevPhase != round.Playing || prev.Round != room.Round || s.timerStart != room.StartTime {
			s.emit(Event{Type: EventRoundStarted, Payload: s.view()})
			emitted = true
			s.startCountdownLocked(room.StartTime, room.Duration)
		}
		if round.QuorumReached(&room) {
			s.triggerRevealLocked("quorum")
		}
	case round.Revealed, round.NextRoundPending:
		s.stopCountdownLocked()
		if prev == nil || prevPhase == round.Playing || prev.Round != room.Round {
			s.emit(Event{Type: EventRevealed, Payload: s.view()})
			emitted = true
		}
	case round.Waiting:
		s.stopCountdownLocked()
	}

	if !emitted {
		s.emit(Event{Type: EventRoomUpdated, Payload: s.view()})
	}
}

func (s *Session) onSubmissions(snap store.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.room == nil {
		return
	}

	var subs map[string]domain.Submission
	if snap.Exists() {
		if err := snap.Decode(&subs); err != nil {
			s.logger().Error("failed to decode submissions", zap.Error(err))
			return
		}
	}

	// This feed and the room feed deliver independently, so the snapshot
	// may still hold an earlier round. The room document stays the source
	// of truth for quorum.
	submitted := make([]string, 0, len(subs))
	for _, id := range s.room.PlayerIDs() {
		if sub, ok := subs[id]; ok && sub.BelongsTo(s.room.Round) {
			submitted = append(submitted, id)
		}
	}
	s.emit(Event{Type: EventSubmissionsUpdated, Payload: SubmissionsPayload{Submitted: submitted}})
}

// startCountdownLocked replaces any running countdown. It is a no-op when
// the countdown already tracks this start time.
func (s *Session) startCountdownLocked(startMillis int64, durationSeconds int) {
	if s.countdown != nil && s.timerStart == startMillis {
		return
	}
	s.stopCountdownLocked()

	s.timerGen++
	gen := s.timerGen
	s.timerStart = startMillis
	s.countdown = timer.Start(s.ctx, timer.Config{
		StartMillis:     startMillis,
		DurationSeconds: durationSeconds,
		Interval:        s.c.cfg.TickInterval,
		Now:             s.c.now,
		Tickers:         s.c.tickers,
		OnTick: func(left int) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed || s.timerGen != gen {
				return
			}
			s.emit(Event{Type: EventTimer, Payload: TimerPayload{Remaining: left}})
		},
		OnExpire: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed || s.timerGen != gen || s.phase != round.Playing {
				return
			}
			s.triggerRevealLocked("timer")
		},
	})
}

func (s *Session) stopCountdownLocked() {
	if s.countdown == nil {
		return
	}
	s.countdown.Stop()
	s.countdown = nil
	s.timerGen++
	s.timerStart = 0
}

// triggerRevealLocked reveals the current round at most once per session
// unless the attempt fails. Other sessions may race to write the same
// value. The room is re-read before writing, so a trigger from a round
// that has already moved on is a no-op.
func (s *Session) triggerRevealLocked(trigger string) {
	if s.room == nil || s.revealRound == s.room.Round {
		return
	}
	target := s.room.Round
	s.revealRound = target
	go func() {
		err := s.reveal(s.ctx, target)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		if !errors.Is(err, domain.ErrConflict) {
			s.logger().Warn("reveal failed", zap.String("trigger", trigger), zap.Int("round", target), zap.Error(err))
		}
		s.mu.Lock()
		if s.revealRound == target {
			s.revealRound = 0
		}
		s.mu.Unlock()
	}()
}

func (s *Session) reveal(ctx context.Context, target int) error {
	room, err := s.c.LoadRoom(ctx, s.code)
	if err != nil {
		return err
	}
	return s.revealRoom(ctx, room, target)
}

func (s *Session) revealRoom(ctx context.Context, room *domain.Room, target int) error {
	fields, result, err := s.c.planner.Reveal(room, target, s.c.nowMillis())
	if err != nil {
		return err
	}
	if err := s.c.store.Update(ctx, store.RoomPath(s.code), fields); err != nil {
		return storeErr("reveal", store.RoomPath(s.code), err)
	}
	s.logger().Info("round revealed", zap.Int("round", result.Round), zap.String("reason", result.Reason), zap.Strings("duplicates", result.DuplicateWords))
	return nil
}

// Reveal ends the current round once every player has committed a word
// or the timer has run out.
func (s *Session) Reveal(ctx context.Context) error {
	room, err := s.c.LoadRoom(ctx, s.code)
	if err != nil {
		return err
	}
	return s.revealRoom(ctx, room, room.Round)
}

func (s *Session) StartRound(ctx context.Context) error {
	room, err := s.c.LoadRoom(ctx, s.code)
	if err != nil {
		return err
	}
	fields, err := s.c.planner.Start(room, s.playerID)
	if err != nil {
		return err
	}
	if err := s.c.store.Update(ctx, store.RoomPath(s.code), fields); err != nil {
		return storeErr("start round", store.RoomPath(s.code), err)
	}
	s.logger().Info("round started", zap.Int("round", room.Round+1), zap.Int("players", room.PlayerCount()))
	return nil
}

func (s *Session) NextRound(ctx context.Context) error {
	room, err := s.c.LoadRoom(ctx, s.code)
	if err != nil {
		return err
	}
	fields, err := s.c.planner.Next(room, s.playerID)
	if err != nil {
		return err
	}
	if err := s.c.store.Update(ctx, store.RoomPath(s.code), fields); err != nil {
		return storeErr("next round", store.RoomPath(s.code), err)
	}
	s.logger().Info("next round started", zap.Int("round", room.Round+1))
	return nil
}

func (s *Session) submission(word string, roundNo int) map[string]any {
	return map[string]any{
		"playerId":   s.playerID,
		"playerName": s.playerName,
		"word":       word,
		"timestamp":  store.ServerTimestamp,
		"round":      roundNo,
	}
}

// SubmitWord stores the trimmed, lower-cased word under the player's own key.
func (s *Session) SubmitWord(ctx context.Context, word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return fmt.Errorf("%w: word cannot be empty", domain.ErrValidation)
	}
	word = strings.ToLower(word)

	room, err := s.c.LoadRoom(ctx, s.code)
	if err != nil {
		return err
	}
	if room.EffectiveMode() != domain.ModeSecretWord {
		return fmt.Errorf("%w: room is in %s mode", domain.ErrConflict, room.EffectiveMode())
	}
	if err := s.c.planner.CheckSubmit(room, s.playerID, s.c.nowMillis()); err != nil {
		return err
	}

	path := store.SubmissionPath(s.code, s.playerID)
	if err := s.c.store.Set(ctx, path, s.submission(word, room.Round)); err != nil {
		return storeErr("submit", path, err)
	}
	return nil
}

func (s *Session) ChoosePublicWord(ctx context.Context, word string) error {
	if strings.TrimSpace(word) == "" {
		return fmt.Errorf("%w: word cannot be empty", domain.ErrValidation)
	}
	room, err := s.c.LoadRoom(ctx, s.code)
	if err != nil {
		return err
	}
	normalized, err := s.c.planner.CheckPublicChoice(room, s.playerID, word, s.c.nowMillis())
	if err != nil {
		return err
	}
	path := store.PublicChoicePath(s.code, s.playerID)
	if err := s.c.store.Set(ctx, path, s.submission(normalized, room.Round)); err != nil {
		return storeErr("choose", path, err)
	}
	return nil
}

// ChooseReplacement marks which of the player's two private words is
// swapped out in the next round.
func (s *Session) ChooseReplacement(ctx context.Context, index int) error {
	room, err := s.c.LoadRoom(ctx, s.code)
	if err != nil {
		return err
	}
	if err := s.c.planner.CheckReplacement(room, s.playerID, index); err != nil {
		return err
	}
	path := store.ReplacementPath(s.code, s.playerID)
	if err := s.c.store.Set(ctx, path, index); err != nil {
		return storeErr("replace", path, err)
	}
	return nil
}

// Leave removes the player, deleting the room when nobody is left. The
// session is always closed, even when a store write fails.
func (s *Session) Leave(ctx context.Context) error {
	err := s.leave(ctx)
	return errors.Join(err, s.Close())
}

func (s *Session) leave(ctx context.Context) error {
	room, err := s.c.LoadRoom(ctx, s.code)
	if err != nil {
		return err
	}
	fields, deleteRoom, err := s.c.planner.Leave(room, s.playerID)
	if err != nil {
		return err
	}

	roomPath := store.RoomPath(s.code)
	if deleteRoom {
		if err := s.c.store.Remove(ctx, roomPath); err != nil {
			return storeErr("remove", roomPath, err)
		}
		s.logger().Info("last player left, room removed")
		return nil
	}
	if err := s.c.store.Update(ctx, roomPath, fields); err != nil {
		return storeErr("leave", roomPath, err)
	}

	// Players leaving at the same time can each see the other one still
	// present, so the emptiness check is repeated after the write.
	players, err := s.c.store.Once(ctx, store.PlayersPath(s.code))
	if err != nil {
		return storeErr("read", store.PlayersPath(s.code), err)
	}
	if !hasPlayers(players) {
		if err := s.c.store.Remove(ctx, roomPath); err != nil {
			return storeErr("remove", roomPath, err)
		}
		s.logger().Info("room emptied, removed")
		return nil
	}
	s.logger().Info("player left")
	return nil
}

// hasPlayers ignores id-less records a racing host hand-over may leave.
func hasPlayers(snap store.Snapshot) bool {
	if !snap.Exists() {
		return false
	}
	room := domain.Room{}
	if err := snap.Decode(&room.Players); err != nil {
		return true
	}
	return room.PlayerCount() > 0
}

// Close releases subscriptions and the countdown without touching the
// room. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stopCountdownLocked()
	s.cancel()

	var errs []error
	for topic := range s.subs {
		if err := s.unsubscribeLocked(topic); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribe %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}
