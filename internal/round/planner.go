// Package round holds the round state machine. Planners validate a
// transition against a room snapshot and return the store fields that
// perform it, relative to the room path.
package round

import (
	"fmt"
	"strings"

	"wordgame-service/domain"
	"wordgame-service/internal/scoring"
	"wordgame-service/internal/store"
	"wordgame-service/internal/timer"
	"wordgame-service/internal/words"
)

const privateWordsPerPlayer = 2

type Rules struct {
	MinPlayers      int
	MaxPlayers      int
	DurationSeconds int
}

func DefaultRules() Rules {
	return Rules{MinPlayers: 2, MaxPlayers: 8, DurationSeconds: 180}
}

type Planner struct {
	pool  *words.Pool
	rules Rules
}

func NewPlanner(pool *words.Pool, rules Rules) *Planner {
	return &Planner{pool: pool, rules: rules}
}

func (p *Planner) Rules() Rules {
	return p.rules
}

func (p *Planner) Start(room *domain.Room, requesterID string) (map[string]any, error) {
	if err := p.checkHost(room, requesterID); err != nil {
		return nil, err
	}
	if PhaseOf(room) != Waiting {
		return nil, fmt.Errorf("%w: round already in progress", domain.ErrConflict)
	}
	if room.PlayerCount() < p.rules.MinPlayers {
		return nil, fmt.Errorf("%w: need at least %d players", domain.ErrValidation, p.rules.MinPlayers)
	}
	return p.deal(room, nil)
}

func (p *Planner) Next(room *domain.Room, requesterID string) (map[string]any, error) {
	if err := p.checkHost(room, requesterID); err != nil {
		return nil, err
	}
	phase := PhaseOf(room)
	if phase != Revealed && phase != NextRoundPending {
		return nil, fmt.Errorf("%w: round not revealed yet", domain.ErrConflict)
	}
	if room.PlayerCount() < p.rules.MinPlayers {
		return nil, fmt.Errorf("%w: need at least %d players", domain.ErrValidation, p.rules.MinPlayers)
	}
	return p.deal(room, room.PlayerWords)
}

func (p *Planner) checkHost(room *domain.Room, requesterID string) error {
	if room.HostID == "" || room.HostID != requesterID {
		return fmt.Errorf("%w: only the host can start a round", domain.ErrForbidden)
	}
	return nil
}

func (p *Planner) deal(room *domain.Room, previous map[string][]domain.Word) (map[string]any, error) {
	ids := room.PlayerIDs()
	fields := map[string]any{
		"status":            domain.StatusPlaying,
		"round":             room.Round + 1,
		"selectedPlayerId":  ids[p.pool.Intn(len(ids))],
		"startTime":         store.ServerTimestamp,
		"duration":          p.rules.DurationSeconds,
		"submissions":       nil,
		"publicWordChoices": nil,
		"replacements":      nil,
	}

	if room.EffectiveMode() == domain.ModePublicWords {
		public, private, err := p.dealPublic(room, ids, previous)
		if err != nil {
			return nil, err
		}
		fields["publicWords"] = public
		fields["playerWords"] = private
		fields["prompt"] = nil
		fields["secretWord"] = nil
		return fields, nil
	}

	picked, err := p.pool.PickRandomWords(1)
	if err != nil {
		return nil, err
	}
	fields["prompt"] = picked[0].Category
	fields["secretWord"] = picked[0]
	fields["publicWords"] = nil
	fields["playerWords"] = nil
	return fields, nil
}

// dealPublic draws playerCount+1 public words and two private words per
// player. Players from the previous round keep their private words except
// the one they asked to replace.
func (p *Planner) dealPublic(room *domain.Room, ids []string, previous map[string][]domain.Word) ([]domain.Word, map[string][]domain.Word, error) {
	private := make(map[string][]domain.Word, len(ids))
	var exclude []domain.Word
	missing := 0
	for _, id := range ids {
		prev := previous[id]
		if len(prev) != privateWordsPerPlayer {
			missing += privateWordsPerPlayer
			continue
		}
		exclude = append(exclude, prev...)
		own := make([]domain.Word, privateWordsPerPlayer)
		copy(own, prev)
		if idx, ok := room.Replacements[id]; ok && idx >= 0 && idx < privateWordsPerPlayer {
			own[idx] = domain.Word{}
			missing++
		}
		private[id] = own
	}

	need := len(ids) + 1 + missing
	drawn, err := p.pool.Without(exclude).PickRandomWords(need)
	if err != nil {
		return nil, nil, err
	}

	public := drawn[:len(ids)+1]
	fresh := drawn[len(ids)+1:]
	for _, id := range ids {
		own, ok := private[id]
		if !ok {
			private[id] = []domain.Word{fresh[0], fresh[1]}
			fresh = fresh[2:]
			continue
		}
		for i := range own {
			if own[i].Text == "" {
				own[i] = fresh[0]
				fresh = fresh[1:]
			}
		}
	}
	return public, private, nil
}

// Reveal scores the committed choices of round target. It fails with
// ErrConflict unless target is still the live round and either every
// player has committed or the timer has run out. The result only depends
// on stored data, so concurrent reveals write the same value.
func (p *Planner) Reveal(room *domain.Room, target int, nowMillis int64) (map[string]any, domain.RoundResult, error) {
	if room.Round != target {
		return nil, domain.RoundResult{}, fmt.Errorf("%w: round %d is over", domain.ErrConflict, target)
	}
	if PhaseOf(room) != Playing {
		return nil, domain.RoundResult{}, fmt.Errorf("%w: no round to reveal", domain.ErrConflict)
	}
	var reason string
	switch {
	case QuorumReached(room):
		reason = domain.RevealAllSubmitted
	case timer.Remaining(nowMillis, room.StartTime, room.Duration) == 0:
		reason = domain.RevealTimerExpired
	default:
		return nil, domain.RoundResult{}, fmt.Errorf("%w: waiting for players", domain.ErrConflict)
	}

	scored := scoring.Score(Choices(room), scoring.RulesFor(room.EffectiveMode()))
	result := domain.RoundResult{
		Round:          room.Round,
		PointsAwarded:  scored.PointsAwarded,
		FoulsAwarded:   scored.FoulsAwarded,
		DuplicateWords: scored.DuplicateWords,
		Reason:         reason,
	}
	return map[string]any{"results/" + domain.RoundKey(room.Round): result}, result, nil
}

// CheckSubmit rejects submissions outside a live round.
func (p *Planner) CheckSubmit(room *domain.Room, playerID string, nowMillis int64) error {
	if !room.HasPlayer(playerID) {
		return fmt.Errorf("%w: player %s is not in room %s", domain.ErrNotFound, playerID, room.Code)
	}
	if PhaseOf(room) != Playing {
		return fmt.Errorf("%w: round is not accepting words", domain.ErrConflict)
	}
	if timer.Remaining(nowMillis, room.StartTime, room.Duration) == 0 {
		return fmt.Errorf("%w: time is up", domain.ErrConflict)
	}
	return nil
}

// CheckPublicChoice validates a public word pick and returns the stored
// form of the word.
func (p *Planner) CheckPublicChoice(room *domain.Room, playerID, word string, nowMillis int64) (string, error) {
	if room.EffectiveMode() != domain.ModePublicWords {
		return "", fmt.Errorf("%w: room is not in public words mode", domain.ErrConflict)
	}
	if err := p.CheckSubmit(room, playerID, nowMillis); err != nil {
		return "", err
	}
	normalized := scoring.Normalize(word)
	for _, w := range room.PublicWords {
		if strings.ToLower(w.Text) == normalized {
			return normalized, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not one of the public words", domain.ErrValidation, word)
}

func (p *Planner) CheckReplacement(room *domain.Room, playerID string, index int) error {
	if room.EffectiveMode() != domain.ModePublicWords {
		return fmt.Errorf("%w: room is not in public words mode", domain.ErrConflict)
	}
	phase := PhaseOf(room)
	if phase != Revealed && phase != NextRoundPending {
		return fmt.Errorf("%w: replacements open after the reveal", domain.ErrConflict)
	}
	res, _ := room.CurrentResult()
	if res.FoulsAwarded[playerID] == 0 {
		return fmt.Errorf("%w: only fouled players replace a word", domain.ErrForbidden)
	}
	if index < 0 || index >= len(room.PlayerWords[playerID]) {
		return fmt.Errorf("%w: replacement index %d", domain.ErrOutOfRange, index)
	}
	return nil
}

// Leave removes playerID. It reports deleteRoom when nobody is left. The
// host role passes to the earliest joined remaining player, and a live
// round is abandoned when its selected player leaves or too few remain.
func (p *Planner) Leave(room *domain.Room, playerID string) (fields map[string]any, deleteRoom bool, err error) {
	if !room.HasPlayer(playerID) {
		return nil, false, fmt.Errorf("%w: player %s is not in room %s", domain.ErrNotFound, playerID, room.Code)
	}

	var remaining []string
	for _, id := range room.PlayerIDs() {
		if id != playerID {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		return nil, true, nil
	}

	fields = map[string]any{
		"players/" + playerID:           nil,
		"submissions/" + playerID:       nil,
		"publicWordChoices/" + playerID: nil,
		"playerWords/" + playerID:       nil,
		"replacements/" + playerID:      nil,
	}
	if room.HostID == playerID {
		fields["hostId"] = remaining[0]
		fields["players/"+remaining[0]+"/isHost"] = true
	}

	if PhaseOf(room) != Waiting && (room.SelectedPlayerID == playerID || len(remaining) < p.rules.MinPlayers) {
		for k, v := range abandonFields() {
			fields[k] = v
		}
	}
	return fields, false, nil
}

func abandonFields() map[string]any {
	return map[string]any{
		"status":            domain.StatusWaiting,
		"prompt":            nil,
		"secretWord":        nil,
		"selectedPlayerId":  nil,
		"startTime":         nil,
		"duration":          nil,
		"submissions":       nil,
		"publicWords":       nil,
		"playerWords":       nil,
		"publicWordChoices": nil,
		"replacements":      nil,
	}
}
