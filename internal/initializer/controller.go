package initializer

import (
	"wordgame-service/config"
	"wordgame-service/domain"
	"wordgame-service/internal/roomsync"
	"wordgame-service/internal/round"
	"wordgame-service/internal/store"
	"wordgame-service/internal/words"
)

// GameRules reads the round rules, falling back to the defaults for
// anything left unset.
func GameRules(appConfig config.Config) round.Rules {
	rules := round.DefaultRules()
	if appConfig.Game.RoundDuration > 0 {
		rules.DurationSeconds = appConfig.Game.RoundDuration
	}
	if appConfig.Game.MinPlayers > 0 {
		rules.MinPlayers = appConfig.Game.MinPlayers
	}
	if appConfig.Game.MaxPlayers >= rules.MinPlayers {
		rules.MaxPlayers = appConfig.Game.MaxPlayers
	}
	return rules
}

func InitController(st store.Store, appConfig config.Config) *roomsync.Controller {
	pool := words.NewPool(words.Catalog(), nil)
	return roomsync.NewController(st, pool, roomsync.Config{
		Rules:       GameRules(appConfig),
		DefaultMode: domain.GameMode(appConfig.Game.DefaultMode),
	})
}
