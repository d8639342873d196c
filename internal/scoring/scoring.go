// Package scoring turns one round of word choices into points and fouls.
package scoring

import (
	"sort"
	"strings"

	"wordgame-service/domain"
)

type Rules struct {
	// RewardUnique awards a point to every player whose word nobody else chose.
	RewardUnique bool
}

func RulesFor(mode domain.GameMode) Rules {
	return Rules{RewardUnique: mode != domain.ModePublicWords}
}

type Result struct {
	PointsAwarded  map[string]int
	FoulsAwarded   map[string]int
	DuplicateWords []string
}

func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// Score is a pure function of the choice set, so every session computing
// it for the same round gets the same answer.
func Score(choices map[string]string, rules Rules) Result {
	groups := make(map[string][]string)
	for playerID, word := range choices {
		w := Normalize(word)
		if w == "" {
			continue
		}
		groups[w] = append(groups[w], playerID)
	}

	res := Result{
		PointsAwarded: map[string]int{},
		FoulsAwarded:  map[string]int{},
	}
	for word, players := range groups {
		if len(players) == 1 {
			if rules.RewardUnique {
				res.PointsAwarded[players[0]]++
			}
			continue
		}
		res.DuplicateWords = append(res.DuplicateWords, word)
		for _, id := range players {
			res.FoulsAwarded[id]++
		}
	}
	sort.Strings(res.DuplicateWords)
	return res
}

type Totals struct {
	Points map[string]int `json:"points"`
	Fouls  map[string]int `json:"fouls"`
}

// Sum adds up every stored round result.
func Sum(results map[string]domain.RoundResult) Totals {
	t := Totals{Points: map[string]int{}, Fouls: map[string]int{}}
	for _, r := range results {
		for id, p := range r.PointsAwarded {
			t.Points[id] += p
		}
		for id, f := range r.FoulsAwarded {
			t.Fouls[id] += f
		}
	}
	return t
}
