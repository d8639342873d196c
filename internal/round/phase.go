package round

import (
	"wordgame-service/domain"
)

type Phase int

const (
	Waiting Phase = iota
	Playing
	Revealed
	NextRoundPending
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	case Revealed:
		return "revealed"
	case NextRoundPending:
		return "next_round_pending"
	default:
		return "unknown"
	}
}

var transitions = map[Phase][]Phase{
	Waiting:          {Playing},
	Playing:          {Revealed, NextRoundPending, Waiting},
	Revealed:         {NextRoundPending, Playing, Waiting},
	NextRoundPending: {Playing, Waiting},
}

func (p Phase) CanTransitionTo(next Phase) bool {
	for _, allowed := range transitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PhaseOf derives the phase from stored fields only, so every session
// agrees on it after the same notification.
func PhaseOf(room *domain.Room) Phase {
	if room.Status != domain.StatusPlaying {
		return Waiting
	}
	res, ok := room.CurrentResult()
	if !ok {
		return Playing
	}
	for id, fouls := range res.FoulsAwarded {
		if fouls <= 0 || !room.HasPlayer(id) {
			continue
		}
		if room.EffectiveMode() != domain.ModePublicWords {
			continue
		}
		if _, picked := room.Replacements[id]; !picked {
			return Revealed
		}
	}
	return NextRoundPending
}

// Choices returns the word each player has committed to this round.
// Entries tagged with another round landed after that round ended and
// are ignored.
func Choices(room *domain.Room) map[string]string {
	src := room.Submissions
	if room.EffectiveMode() == domain.ModePublicWords {
		src = room.PublicWordChoices
	}
	out := make(map[string]string, len(src))
	for id, sub := range src {
		if !sub.BelongsTo(room.Round) {
			continue
		}
		out[id] = sub.Word
	}
	return out
}

// QuorumReached reports whether every current player has committed a word.
func QuorumReached(room *domain.Room) bool {
	ids := room.PlayerIDs()
	if len(ids) == 0 {
		return false
	}
	choices := Choices(room)
	for _, id := range ids {
		if _, ok := choices[id]; !ok {
			return false
		}
	}
	return true
}
