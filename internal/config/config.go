package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Safe defaults used whenever the config file is absent or a field is unset.
const (
	defaultMinParticipants     = 2
	defaultMaxParticipants     = 26
	defaultTurnDeadlineHours   = 48
	defaultInkPerCompletedGame = 25
	defaultInviteTTLHours      = 72
)

// PartyConfig holds tunable party rules loaded from data/party_config.json.
type PartyConfig struct {
	MinParticipants int `json:"min_participants"`
	MaxParticipants int `json:"max_participants"`
	// TurnDeadlineHours is how long a pending turn may sit before the party
	// owner is allowed to skip it.
	TurnDeadlineHours   int   `json:"turn_deadline_hours"`
	InkPerCompletedGame int64 `json:"ink_per_completed_game"`
	InviteTTLHours      int   `json:"invite_ttl_hours"`
	// LobbyLockedDefault makes new lobbies invite-only until the owner
	// unlocks them.
	LobbyLockedDefault bool `json:"lobby_locked_default"`
}

var (
	cfg      *PartyConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadPartyConfig loads the party configuration from the given path.
func LoadPartyConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read party config: %w", err)
			return
		}

		var c PartyConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal party config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetPartyConfig returns the global party configuration, or nil when no file
// has been loaded. Prefer the accessors below, which fall back to defaults.
func GetPartyConfig() *PartyConfig {
	return cfg
}

// MinParticipants returns the smallest party allowed to start a season.
func MinParticipants() int {
	if cfg == nil || cfg.MinParticipants <= 0 {
		return defaultMinParticipants
	}
	return cfg.MinParticipants
}

// MaxParticipants returns the largest party allowed to start a season. The
// rotation engine addresses participants by single letters, so the value is
// capped at 26 regardless of configuration.
func MaxParticipants() int {
	if cfg == nil || cfg.MaxParticipants <= 0 {
		return defaultMaxParticipants
	}
	if cfg.MaxParticipants > defaultMaxParticipants {
		return defaultMaxParticipants
	}
	return cfg.MaxParticipants
}

// TurnDeadline returns how long a pending turn may stall before the party
// owner can skip it.
func TurnDeadline() time.Duration {
	hours := defaultTurnDeadlineHours
	if cfg != nil && cfg.TurnDeadlineHours > 0 {
		hours = cfg.TurnDeadlineHours
	}
	return time.Duration(hours) * time.Hour
}

// InkPerCompletedGame returns the ink awarded to each contributor when a
// game completes.
func InkPerCompletedGame() int64 {
	if cfg == nil || cfg.InkPerCompletedGame <= 0 {
		return defaultInkPerCompletedGame
	}
	return cfg.InkPerCompletedGame
}

// InviteTTL returns the lifetime of invite tokens.
func InviteTTL() time.Duration {
	hours := defaultInviteTTLHours
	if cfg != nil && cfg.InviteTTLHours > 0 {
		hours = cfg.InviteTTLHours
	}
	return time.Duration(hours) * time.Hour
}

// LobbyLockedDefault reports whether new lobbies start invite-only.
func LobbyLockedDefault() bool {
	if cfg == nil {
		return false
	}
	return cfg.LobbyLockedDefault
}
