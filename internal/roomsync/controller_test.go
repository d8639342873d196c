package roomsync

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wordgame-service/domain"
	"wordgame-service/infra/memory"
	"wordgame-service/internal/round"
	"wordgame-service/internal/store"
	"wordgame-service/internal/words"
)

type harness struct {
	store   *memory.Store
	clock   *fakeClock
	tickers *manualTickers
	ctrl    *Controller
}

func sequentialIDs() func() string {
	var n atomic.Int32
	return func() string { return fmt.Sprintf("p%d", n.Add(1)) }
}

func setupController(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	st := memory.New(memory.WithClock(clock.Now))
	tickers := &manualTickers{ch: make(chan time.Time)}
	pool := words.NewPool(words.Catalog(), rand.New(rand.NewSource(3)))
	ctrl := NewController(st, pool, Config{Rules: round.DefaultRules()},
		WithClock(clock.Now),
		WithTickers(tickers),
		WithCodeGenerator(func() string { return "ABC123" }),
		WithIDGenerator(sequentialIDs()),
	)
	return &harness{store: st, clock: clock, tickers: tickers, ctrl: ctrl}
}

type recorder struct {
	ch chan Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Event, 512)}
}

func (r *recorder) sink(e Event) {
	r.ch <- e
}

func (r *recorder) waitFor(t *testing.T, typ EventType, match func(Event) bool) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-r.ch:
			if e.Type == typ && (match == nil || match(e)) {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
			return Event{}
		}
	}
}

func roundIs(n int) func(Event) bool {
	return func(e Event) bool {
		v, ok := e.Payload.(RoomView)
		return ok && v.Round == n
	}
}

func submittedAre(ids ...string) func(Event) bool {
	return func(e Event) bool {
		p, ok := e.Payload.(SubmissionsPayload)
		if !ok || len(p.Submitted) != len(ids) {
			return false
		}
		for i, id := range ids {
			if p.Submitted[i] != id {
				return false
			}
		}
		return true
	}
}

// noEvent fails when an event of typ matching match arrives within d.
func (r *recorder) noEvent(t *testing.T, typ EventType, match func(Event) bool, d time.Duration) {
	t.Helper()
	deadline := time.After(d)
	for {
		select {
		case e := <-r.ch:
			if e.Type == typ && (match == nil || match(e)) {
				t.Fatalf("unexpected %s event: %+v", typ, e.Payload)
			}
		case <-deadline:
			return
		}
	}
}

func twoPlayerRoom(t *testing.T, h *harness, mode domain.GameMode) (*Session, *Session, *recorder, *recorder) {
	t.Helper()
	ctx := context.Background()
	host, err := h.ctrl.CreateRoom(ctx, "party", "Alice", mode)
	require.NoError(t, err)
	guest, err := h.ctrl.JoinRoom(ctx, "abc123", "Bob")
	require.NoError(t, err)

	hostEvents, guestEvents := newRecorder(), newRecorder()
	require.NoError(t, host.Listen(ctx, hostEvents.sink))
	require.NoError(t, guest.Listen(ctx, guestEvents.sink))
	t.Cleanup(func() {
		host.Close()
		guest.Close()
	})
	return host, guest, hostEvents, guestEvents
}

func TestCreateAndJoinRoom(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()

	host, err := h.ctrl.CreateRoom(ctx, "party", "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", host.RoomCode())
	assert.Equal(t, "p1", host.PlayerID())

	guest, err := h.ctrl.JoinRoom(ctx, " abc123 ", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "p2", guest.PlayerID())

	room, err := h.ctrl.LoadRoom(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "p1", room.HostID)
	assert.Equal(t, domain.StatusWaiting, room.Status)
	assert.Equal(t, domain.ModeSecretWord, room.Mode)
	assert.Equal(t, int64(1_700_000_000_000), room.CreatedAt)
	assert.True(t, room.Players["p1"].IsHost)
	assert.False(t, room.Players["p2"].IsHost)
}

func TestCreateRoomRetriesTakenCode(t *testing.T) {
	h := setupController(t)
	codes := []string{"ABC123", "ABC123", "XYZ789"}
	var i atomic.Int32
	h.ctrl.codes = func() string { return codes[int(i.Add(1))-1] }

	first, err := h.ctrl.CreateRoom(context.Background(), "one", "Alice", "")
	require.NoError(t, err)
	second, err := h.ctrl.CreateRoom(context.Background(), "two", "Bob", "")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", first.RoomCode())
	assert.Equal(t, "XYZ789", second.RoomCode())
}

func TestCreateRoomValidation(t *testing.T) {
	h := setupController(t)
	_, err := h.ctrl.CreateRoom(context.Background(), "party", "  ", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = h.ctrl.CreateRoom(context.Background(), "party", "Alice", "chess")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestJoinRoomValidation(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()

	_, err := h.ctrl.JoinRoom(ctx, "ABC", "Bob")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.ctrl.JoinRoom(ctx, "ABC12!", "Bob")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.ctrl.JoinRoom(ctx, "ZZZ999", "Bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.ctrl.CreateRoom(ctx, "party", "Alice", "")
	require.NoError(t, err)
	_, err = h.ctrl.JoinRoom(ctx, "ABC123", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestJoinRoomRejectsStartedAndFullRooms(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, err := h.ctrl.CreateRoom(ctx, "party", "Alice", "")
	require.NoError(t, err)
	for i := 0; i < round.DefaultRules().MaxPlayers-1; i++ {
		_, err := h.ctrl.JoinRoom(ctx, "ABC123", fmt.Sprintf("guest-%d", i))
		require.NoError(t, err)
	}
	_, err = h.ctrl.JoinRoom(ctx, "ABC123", "late")
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, host.StartRound(ctx))
	require.NoError(t, h.store.Remove(ctx, store.PlayerPath("ABC123", "p8")))
	_, err = h.ctrl.JoinRoom(ctx, "ABC123", "late")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStartRoundNeedsTwoPlayers(t *testing.T) {
	h := setupController(t)
	host, err := h.ctrl.CreateRoom(context.Background(), "party", "Alice", "")
	require.NoError(t, err)
	assert.ErrorIs(t, host.StartRound(context.Background()), domain.ErrValidation)
}

func TestStartRoundHostOnly(t *testing.T) {
	h := setupController(t)
	_, guest, _, _ := twoPlayerRoom(t, h, domain.ModeSecretWord)
	assert.ErrorIs(t, guest.StartRound(context.Background()), domain.ErrForbidden)
}

func TestSubmitWord(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, _, hostEvents, _ := twoPlayerRoom(t, h, domain.ModeSecretWord)

	assert.ErrorIs(t, host.SubmitWord(ctx, "cat"), domain.ErrConflict, "no round yet")

	require.NoError(t, host.StartRound(ctx))
	hostEvents.waitFor(t, EventRoundStarted, nil)

	assert.ErrorIs(t, host.SubmitWord(ctx, "  "), domain.ErrValidation)
	assert.ErrorIs(t, host.SubmitWord(ctx, ""), domain.ErrValidation)
	require.NoError(t, host.SubmitWord(ctx, "ELEPHANT"))

	snap, err := h.store.Once(ctx, store.SubmissionPath("ABC123", "p1"))
	require.NoError(t, err)
	var sub domain.Submission
	require.NoError(t, snap.Decode(&sub))
	assert.Equal(t, "elephant", sub.Word)
	assert.Equal(t, "Alice", sub.PlayerName)
	assert.Equal(t, int64(1_700_000_000_000), sub.Timestamp)

	hostEvents.waitFor(t, EventSubmissionsUpdated, submittedAre("p1"))
	assert.Equal(t, 1, sub.Round)
}

// playRoundOne starts round 1, has both players submit and waits until
// both sessions saw the reveal.
func playRoundOne(t *testing.T, host, guest *Session, hostEvents, guestEvents *recorder) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, host.StartRound(ctx))
	hostEvents.waitFor(t, EventRoundStarted, roundIs(1))
	guestEvents.waitFor(t, EventRoundStarted, roundIs(1))
	require.NoError(t, host.SubmitWord(ctx, "cat"))
	require.NoError(t, guest.SubmitWord(ctx, "dog"))
	hostEvents.waitFor(t, EventRevealed, roundIs(1))
	guestEvents.waitFor(t, EventRevealed, roundIs(1))
}

func TestSecondRoundWaitsForQuorum(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, guest, hostEvents, guestEvents := twoPlayerRoom(t, h, domain.ModeSecretWord)
	playRoundOne(t, host, guest, hostEvents, guestEvents)

	require.NoError(t, host.NextRound(ctx))
	hostEvents.waitFor(t, EventRoundStarted, roundIs(2))
	guestEvents.waitFor(t, EventRoundStarted, roundIs(2))
	hostEvents.noEvent(t, EventRevealed, roundIs(2), 100*time.Millisecond)

	room, err := h.ctrl.LoadRoom(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, round.Playing, round.PhaseOf(room))
	_, ok := room.CurrentResult()
	assert.False(t, ok, "round 2 has no result yet")

	require.NoError(t, host.SubmitWord(ctx, "owl"))
	hostEvents.noEvent(t, EventRevealed, roundIs(2), 100*time.Millisecond)
	require.NoError(t, guest.SubmitWord(ctx, "fox"))

	revealed := guestEvents.waitFor(t, EventRevealed, roundIs(2)).Payload.(RoomView)
	assert.Equal(t, domain.RevealAllSubmitted, revealed.Result.Reason)
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1}, revealed.Result.PointsAwarded)
	assert.Equal(t, map[string]int{"p1": 2, "p2": 2}, revealed.Scores.Points)
}

func TestRevealFromEarlierRoundIsIgnored(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, guest, hostEvents, guestEvents := twoPlayerRoom(t, h, domain.ModeSecretWord)
	playRoundOne(t, host, guest, hostEvents, guestEvents)

	require.NoError(t, host.NextRound(ctx))
	guestEvents.waitFor(t, EventRoundStarted, roundIs(2))

	// a round 1 reveal that was still in flight lands now
	assert.ErrorIs(t, guest.reveal(ctx, 1), domain.ErrConflict)

	room, err := h.ctrl.LoadRoom(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, 2, room.Round)
	assert.NotContains(t, room.Results, "2")
	assert.Equal(t, round.Playing, round.PhaseOf(room))
}

func TestStaleSubmissionsSnapshotDoesNotReveal(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, guest, hostEvents, guestEvents := twoPlayerRoom(t, h, domain.ModeSecretWord)
	playRoundOne(t, host, guest, hostEvents, guestEvents)

	require.NoError(t, host.NextRound(ctx))
	guestEvents.waitFor(t, EventRoundStarted, roundIs(2))

	stale, err := store.Normalize(map[string]any{
		"p1": map[string]any{"playerId": "p1", "word": "cat", "round": 1},
		"p2": map[string]any{"playerId": "p2", "word": "dog", "round": 1},
	})
	require.NoError(t, err)
	guest.onSubmissions(store.NewSnapshot(store.SubmissionsPath("ABC123"), stale))

	guestEvents.waitFor(t, EventSubmissionsUpdated, submittedAre())
	guestEvents.noEvent(t, EventRevealed, roundIs(2), 100*time.Millisecond)
	assert.ErrorIs(t, host.Reveal(ctx), domain.ErrConflict, "nobody submitted in round 2")
}

func TestTwoPlayerGame(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, guest, hostEvents, guestEvents := twoPlayerRoom(t, h, domain.ModeSecretWord)

	require.NoError(t, host.StartRound(ctx))
	started := guestEvents.waitFor(t, EventRoundStarted, roundIs(1)).Payload.(RoomView)
	assert.Contains(t, []string{"p1", "p2"}, started.SelectedPlayerID)
	assert.Equal(t, 180, started.Remaining)
	if started.SelectedPlayerID == "p2" {
		assert.Nil(t, started.SecretWord, "selected player never sees the word")
	} else {
		assert.NotNil(t, started.SecretWord)
	}
	hostEvents.waitFor(t, EventTimer, nil)

	require.NoError(t, host.SubmitWord(ctx, "cat"))
	require.NoError(t, guest.SubmitWord(ctx, "dog"))

	revealed := hostEvents.waitFor(t, EventRevealed, roundIs(1)).Payload.(RoomView)
	require.NotNil(t, revealed.Result)
	assert.Equal(t, domain.RevealAllSubmitted, revealed.Result.Reason)
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1}, revealed.Result.PointsAwarded)
	assert.Equal(t, map[string]string{"p1": "cat", "p2": "dog"}, revealed.Choices)
	guestEvents.waitFor(t, EventRevealed, roundIs(1))

	assert.ErrorIs(t, guest.NextRound(ctx), domain.ErrForbidden)
	require.NoError(t, host.NextRound(ctx))
	guestEvents.waitFor(t, EventRoundStarted, roundIs(2))

	require.NoError(t, host.SubmitWord(ctx, "CAT"))
	require.NoError(t, guest.SubmitWord(ctx, "cat"))

	revealed = guestEvents.waitFor(t, EventRevealed, roundIs(2)).Payload.(RoomView)
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1}, revealed.Result.FoulsAwarded)
	assert.Equal(t, []string{"cat"}, revealed.Result.DuplicateWords)
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1}, revealed.Scores.Points, "scores carry over")
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1}, revealed.Scores.Fouls)

	require.NoError(t, guest.Leave(ctx))
	hostEvents.waitFor(t, EventPlayersUpdated, func(e Event) bool {
		return len(e.Payload.(RoomView).Players) == 1
	})
	require.NoError(t, host.Leave(ctx))

	snap, err := h.store.Once(ctx, store.RoomPath("ABC123"))
	require.NoError(t, err)
	assert.False(t, snap.Exists(), "last player leaving removes the room")
}

func TestTimerExpiryReveals(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, guest, hostEvents, _ := twoPlayerRoom(t, h, domain.ModeSecretWord)

	require.NoError(t, host.StartRound(ctx))
	hostEvents.waitFor(t, EventRoundStarted, roundIs(1))
	require.NoError(t, guest.SubmitWord(ctx, "cat"))

	h.clock.Advance(181 * time.Second)
	assert.ErrorIs(t, host.SubmitWord(ctx, "late"), domain.ErrConflict)

	select {
	case h.tickers.ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("no countdown is waiting for a tick")
	}

	revealed := hostEvents.waitFor(t, EventRevealed, roundIs(1)).Payload.(RoomView)
	assert.Equal(t, domain.RevealTimerExpired, revealed.Result.Reason)
	assert.Equal(t, map[string]int{"p2": 1}, revealed.Result.PointsAwarded)
}

func TestExplicitReveal(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, _, hostEvents, _ := twoPlayerRoom(t, h, domain.ModeSecretWord)

	require.NoError(t, host.StartRound(ctx))
	hostEvents.waitFor(t, EventRoundStarted, roundIs(1))
	assert.ErrorIs(t, host.Reveal(ctx), domain.ErrConflict, "still waiting for players")

	h.clock.Advance(200 * time.Second)
	require.NoError(t, host.Reveal(ctx))

	room, err := h.ctrl.LoadRoom(ctx, "ABC123")
	require.NoError(t, err)
	res, ok := room.CurrentResult()
	require.True(t, ok)
	assert.Equal(t, domain.RevealTimerExpired, res.Reason)
}

func TestPublicWordsRound(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, guest, hostEvents, guestEvents := twoPlayerRoom(t, h, domain.ModePublicWords)

	require.NoError(t, host.StartRound(ctx))
	view := hostEvents.waitFor(t, EventRoundStarted, roundIs(1)).Payload.(RoomView)
	require.Len(t, view.PublicWords, 3)
	assert.Len(t, view.MyWords, 2)

	assert.ErrorIs(t, host.SubmitWord(ctx, "cat"), domain.ErrConflict)
	word := view.PublicWords[0].Text
	require.NoError(t, host.ChoosePublicWord(ctx, word))
	require.NoError(t, guest.ChoosePublicWord(ctx, word))

	revealed := guestEvents.waitFor(t, EventRevealed, roundIs(1)).Payload.(RoomView)
	assert.Equal(t, round.Revealed.String(), revealed.Phase)
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1}, revealed.Result.FoulsAwarded)

	require.NoError(t, host.ChooseReplacement(ctx, 0))
	require.NoError(t, guest.ChooseReplacement(ctx, 1))
	hostEvents.waitFor(t, EventRoomUpdated, func(e Event) bool {
		return e.Payload.(RoomView).Phase == round.NextRoundPending.String()
	})

	require.NoError(t, host.NextRound(ctx))
	next := guestEvents.waitFor(t, EventRoundStarted, roundIs(2)).Payload.(RoomView)
	assert.Empty(t, next.Submitted)
	assert.Len(t, next.PublicWords, 3)
}

func TestResume(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, err := h.ctrl.CreateRoom(ctx, "party", "Alice", "")
	require.NoError(t, err)

	again, err := h.ctrl.Resume(ctx, "ABC123", host.PlayerID())
	require.NoError(t, err)
	assert.Equal(t, host.PlayerID(), again.PlayerID())

	_, err = h.ctrl.Resume(ctx, "ABC123", "stranger")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestView(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, err := h.ctrl.CreateRoom(ctx, "party", "Alice", "")
	require.NoError(t, err)

	view, err := h.ctrl.View(ctx, "abc123", host.PlayerID())
	require.NoError(t, err)
	assert.Equal(t, "ABC123", view.Code)
	assert.Equal(t, "waiting", view.Phase)
	require.Len(t, view.Players, 1)
	assert.Equal(t, "Alice", view.Players[0].Name)

	_, err = h.ctrl.View(ctx, "ABC123", "stranger")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.ctrl.View(ctx, "ZZZ999", host.PlayerID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoomClosedEvent(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	_, _, hostEvents, _ := twoPlayerRoom(t, h, domain.ModeSecretWord)

	require.NoError(t, h.store.Remove(ctx, store.RoomPath("ABC123")))
	hostEvents.waitFor(t, EventRoomClosed, nil)
}

func roomSnapshot(t *testing.T, room domain.Room) store.Snapshot {
	t.Helper()
	v, err := store.Normalize(room)
	require.NoError(t, err)
	return store.NewSnapshot(store.RoomPath(room.Code), v)
}

func setupMockController(t *testing.T) (*MockStore, *Controller) {
	t.Helper()
	st := &MockStore{}
	pool := words.NewPool(words.Catalog(), rand.New(rand.NewSource(3)))
	return st, NewController(st, pool, Config{}, WithTickers(&manualTickers{ch: make(chan time.Time)}))
}

func waitingRoom() domain.Room {
	return domain.Room{
		Code:   "ABC123",
		HostID: "p1",
		Status: domain.StatusWaiting,
		Players: map[string]domain.Player{
			"p1": {ID: "p1", Name: "Alice", IsHost: true},
			"p2": {ID: "p2", Name: "Bob", JoinedAt: 1},
		},
	}
}

func TestLeaveCleansUpWhenWriteFails(t *testing.T) {
	st, ctrl := setupMockController(t)
	roomSub, subsSub := &MockSubscription{}, &MockSubscription{}
	roomSub.On("Unsubscribe").Return(nil).Once()
	subsSub.On("Unsubscribe").Return(nil).Once()

	st.Mock.On("On", mock.Anything, "rooms/ABC123", mock.Anything).Return(roomSub, nil)
	st.Mock.On("On", mock.Anything, "rooms/ABC123/submissions", mock.Anything).Return(subsSub, nil)
	st.Mock.On("Once", mock.Anything, "rooms/ABC123").Return(roomSnapshot(t, waitingRoom()), nil)
	st.Mock.On("Update", mock.Anything, "rooms/ABC123", mock.Anything).Return(errors.New("connection reset"))

	s := ctrl.newSession("ABC123", "p1", "Alice")
	require.NoError(t, s.Listen(context.Background(), func(Event) {}))

	err := s.Leave(context.Background())
	assert.ErrorIs(t, err, domain.ErrStore)
	roomSub.AssertExpectations(t)
	subsSub.AssertExpectations(t)

	assert.NoError(t, s.Close(), "closing twice is harmless")
	assert.ErrorIs(t, s.Listen(context.Background(), func(Event) {}), domain.ErrConflict)
}

func TestListenReplacesSubscriptions(t *testing.T) {
	st, ctrl := setupMockController(t)
	first, second := &MockSubscription{}, &MockSubscription{}
	first.On("Unsubscribe").Return(nil).Once()
	second.On("Unsubscribe").Return(nil).Once()

	st.Mock.On("On", mock.Anything, "rooms/ABC123", mock.Anything).Return(first, nil).Once()
	st.Mock.On("On", mock.Anything, "rooms/ABC123", mock.Anything).Return(second, nil).Once()
	subs := &MockSubscription{}
	subs.On("Unsubscribe").Return(nil)
	st.Mock.On("On", mock.Anything, "rooms/ABC123/submissions", mock.Anything).Return(subs, nil)

	s := ctrl.newSession("ABC123", "p1", "Alice")
	require.NoError(t, s.Listen(context.Background(), func(Event) {}))
	require.NoError(t, s.Listen(context.Background(), func(Event) {}))
	first.AssertExpectations(t)

	require.NoError(t, s.Close())
	second.AssertExpectations(t)
}

func TestListenFailure(t *testing.T) {
	st, ctrl := setupMockController(t)
	roomSub := &MockSubscription{}
	roomSub.On("Unsubscribe").Return(nil).Once()
	st.Mock.On("On", mock.Anything, "rooms/ABC123", mock.Anything).Return(roomSub, nil)
	st.Mock.On("On", mock.Anything, "rooms/ABC123/submissions", mock.Anything).Return(nil, errors.New("boom"))

	s := ctrl.newSession("ABC123", "p1", "Alice")
	err := s.Listen(context.Background(), func(Event) {})
	assert.ErrorIs(t, err, domain.ErrStore)
	roomSub.AssertExpectations(t)
}

func TestStartRoundStoreFailure(t *testing.T) {
	st, ctrl := setupMockController(t)
	st.Mock.On("Once", mock.Anything, "rooms/ABC123").Return(roomSnapshot(t, waitingRoom()), nil)
	st.Mock.On("Update", mock.Anything, "rooms/ABC123", mock.Anything).Return(errors.New("timeout"))

	s := ctrl.newSession("ABC123", "p1", "Alice")
	err := s.StartRound(context.Background())
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Nil(t, s.countdown)
}

func TestLeaveRemovesRoomWithOnlyLeftovers(t *testing.T) {
	h := setupController(t)
	ctx := context.Background()
	host, guest, _, _ := twoPlayerRoom(t, h, domain.ModeSecretWord)

	require.NoError(t, guest.Leave(ctx))
	// a racing host hand-over left an id-less record behind
	require.NoError(t, h.store.Set(ctx, store.PlayerPath("ABC123", "p2")+"/isHost", true))

	_, err := h.ctrl.Resume(ctx, "ABC123", "p2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, host.Leave(ctx))
	snap, err := h.store.Once(ctx, store.RoomPath("ABC123"))
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}
