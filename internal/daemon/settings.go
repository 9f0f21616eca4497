package daemon

import (
	"sync/atomic"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
)

// Settings are the knobs that may change while the loop runs.
type Settings struct {
	ErrorLimit int
	Pacing     config.PacingConfig
}

// SettingsFromConfig extracts the hot settings of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{ErrorLimit: cfg.ErrorLimit, Pacing: cfg.Pacing}
}

// LiveSettings holds the current Settings for concurrent readers.
type LiveSettings struct {
	v atomic.Pointer[Settings]
}

func NewLiveSettings(s Settings) *LiveSettings {
	ls := &LiveSettings{}
	ls.Store(s)
	return ls
}

func (l *LiveSettings) Load() Settings { return *l.v.Load() }

func (l *LiveSettings) Store(s Settings) { l.v.Store(&s) }
