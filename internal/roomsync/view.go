package roomsync

import (
	"sort"

	"wordgame-service/domain"
	"wordgame-service/internal/round"
	"wordgame-service/internal/scoring"
	"wordgame-service/internal/timer"
)

type EventType string

const (
	EventPlayersUpdated     EventType = "players_updated"
	EventRoundStarted       EventType = "round_started"
	EventTimer              EventType = "timer"
	EventSubmissionsUpdated EventType = "submissions_updated"
	EventRevealed           EventType = "revealed"
	EventRoomUpdated        EventType = "room_updated"
	EventRoomClosed         EventType = "room_closed"
)

type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"content,omitempty"`
}

type TimerPayload struct {
	Remaining int `json:"remaining"`
}

type SubmissionsPayload struct {
	Submitted []string `json:"submitted"`
}

// RoomView is what one player is allowed to see of a room.
type RoomView struct {
	Code             string              `json:"code"`
	Name             string              `json:"name"`
	HostID           string              `json:"hostId"`
	Status           domain.RoomStatus   `json:"status"`
	Mode             domain.GameMode     `json:"mode"`
	Phase            string              `json:"phase"`
	Round            int                 `json:"round"`
	Players          []domain.Player     `json:"players"`
	Prompt           string              `json:"prompt,omitempty"`
	SecretWord       *domain.Word        `json:"secretWord,omitempty"`
	SelectedPlayerID string              `json:"selectedPlayerId,omitempty"`
	StartTime        int64               `json:"startTime,omitempty"`
	Duration         int                 `json:"duration,omitempty"`
	Remaining        int                 `json:"remaining"`
	Submitted        []string            `json:"submitted,omitempty"`
	PublicWords      []domain.Word       `json:"publicWords,omitempty"`
	MyWords          []domain.Word       `json:"myWords,omitempty"`
	MyChoice         string              `json:"myChoice,omitempty"`
	Choices          map[string]string   `json:"choices,omitempty"`
	Result           *domain.RoundResult `json:"result,omitempty"`
	Scores           scoring.Totals      `json:"scores"`
}

// BuildView hides the secret word from the selected player and every
// other player's words until the round is revealed.
func BuildView(room *domain.Room, viewerID string, nowMillis int64) RoomView {
	phase := round.PhaseOf(room)
	v := RoomView{
		Code:             room.Code,
		Name:             room.Name,
		HostID:           room.HostID,
		Status:           room.Status,
		Mode:             room.EffectiveMode(),
		Phase:            phase.String(),
		Round:            room.Round,
		Prompt:           room.Prompt,
		SelectedPlayerID: room.SelectedPlayerID,
		StartTime:        room.StartTime,
		Duration:         room.Duration,
		PublicWords:      room.PublicWords,
		MyWords:          room.PlayerWords[viewerID],
		Scores:           scoring.Sum(room.Results),
	}
	for _, id := range room.PlayerIDs() {
		v.Players = append(v.Players, room.Players[id])
	}
	if viewerID != room.SelectedPlayerID {
		v.SecretWord = room.SecretWord
	}

	choices := round.Choices(room)
	for id := range choices {
		v.Submitted = append(v.Submitted, id)
	}
	sort.Strings(v.Submitted)
	v.MyChoice = choices[viewerID]

	switch phase {
	case round.Playing:
		v.Remaining = timer.Remaining(nowMillis, room.StartTime, room.Duration)
	case round.Revealed, round.NextRoundPending:
		res, _ := room.CurrentResult()
		v.Result = &res
		v.Choices = choices
		v.SecretWord = room.SecretWord
	}
	return v
}
