package domain

import (
	"sort"
	"strconv"
)

type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

type GameMode string

const (
	ModeSecretWord  GameMode = "secret_word"
	ModePublicWords GameMode = "public_words"
)

func (m GameMode) Valid() bool {
	return m == ModeSecretWord || m == ModePublicWords
}

const (
	RevealAllSubmitted = "all_submitted"
	RevealTimerExpired = "timer_expired"
)

type Word struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsHost   bool   `json:"isHost"`
	JoinedAt int64  `json:"joinedAt"`
}

// Submission is used for both secret-word guesses and public word choices.
type Submission struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Word       string `json:"word"`
	Timestamp  int64  `json:"timestamp"`
	Round      int    `json:"round,omitempty"`
}

// BelongsTo reports whether the submission was made in round. Untagged
// submissions count for any round.
func (s Submission) BelongsTo(round int) bool {
	return s.Round == 0 || s.Round == round
}

type RoundResult struct {
	Round          int            `json:"round"`
	PointsAwarded  map[string]int `json:"pointsAwarded,omitempty"`
	FoulsAwarded   map[string]int `json:"foulsAwarded,omitempty"`
	DuplicateWords []string       `json:"duplicateWords,omitempty"`
	Reason         string         `json:"reason"`
}

type Room struct {
	Code              string                 `json:"code"`
	Name              string                 `json:"name"`
	HostID            string                 `json:"hostId"`
	Status            RoomStatus             `json:"status"`
	Mode              GameMode               `json:"mode,omitempty"`
	Players           map[string]Player      `json:"players,omitempty"`
	CreatedAt         int64                  `json:"createdAt,omitempty"`
	Round             int                    `json:"round,omitempty"`
	Prompt            string                 `json:"prompt,omitempty"`
	SecretWord        *Word                  `json:"secretWord,omitempty"`
	SelectedPlayerID  string                 `json:"selectedPlayerId,omitempty"`
	StartTime         int64                  `json:"startTime,omitempty"`
	Duration          int                    `json:"duration,omitempty"`
	Submissions       map[string]Submission  `json:"submissions,omitempty"`
	PlayerWords       map[string][]Word      `json:"playerWords,omitempty"`
	PublicWords       []Word                 `json:"publicWords,omitempty"`
	PublicWordChoices map[string]Submission  `json:"publicWordChoices,omitempty"`
	Replacements      map[string]int         `json:"replacements,omitempty"`
	Results           map[string]RoundResult `json:"results,omitempty"`
}

func (r *Room) EffectiveMode() GameMode {
	if r.Mode == "" {
		return ModeSecretWord
	}
	return r.Mode
}

// HasPlayer ignores entries without an id. Those are left behind when a
// field write on a player races with that player leaving.
func (r *Room) HasPlayer(id string) bool {
	p, ok := r.Players[id]
	return ok && p.ID != ""
}

// PlayerIDs returns player ids ordered by join time, then id.
func (r *Room) PlayerIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for id, p := range r.Players {
		if p.ID == "" {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.Players[ids[i]], r.Players[ids[j]]
		if a.JoinedAt != b.JoinedAt {
			return a.JoinedAt < b.JoinedAt
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (r *Room) PlayerCount() int {
	return len(r.PlayerIDs())
}

func (r *Room) CurrentResult() (RoundResult, bool) {
	if r.Round == 0 {
		return RoundResult{}, false
	}
	res, ok := r.Results[strconv.Itoa(r.Round)]
	return res, ok
}

func RoundKey(round int) string {
	return strconv.Itoa(round)
}
