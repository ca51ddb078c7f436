package engine

import (
	"time"

	"github.com/ZeruiLi/FocusOrb/internal/store"
)

// DefaultPendingDuration is the debounce window before a requested break
// confirms. Fixed for the lifetime of a session.
const DefaultPendingDuration = 3 * time.Second

// Config holds the externally-managed knobs the machine reads at startup.
// All values are read-only inputs; none change mid-session.
type Config struct {
	// PendingDuration is how long a pending break can still be cancelled.
	PendingDuration time.Duration
	// AutoMergeWindow links a new session to the previous one when the gap
	// between them is at most this long. Zero disables merging.
	AutoMergeWindow time.Duration
	// AutoBreakIdle confirms a break after this much inactivity while in
	// focus. Zero disables the idle policy.
	AutoBreakIdle time.Duration
	// AutoBreakFill is the grace credited as focus before an auto-break's
	// backdated start.
	AutoBreakFill time.Duration
	// EnableReflection gates the end-of-session mood prompt.
	EnableReflection bool
}

// LoadConfig reads machine configuration from the settings table, falling
// back to seeded defaults for missing or malformed values.
func LoadConfig(s *store.Store) Config {
	return Config{
		PendingDuration:  s.GetSettingDuration(store.SettingPendingDuration, time.Second, DefaultPendingDuration),
		AutoMergeWindow:  s.GetSettingDuration(store.SettingAutoMergeWindow, time.Minute, 5*time.Minute),
		AutoBreakIdle:    s.GetSettingDuration(store.SettingAutoBreakIdle, time.Minute, 0),
		AutoBreakFill:    s.GetSettingDuration(store.SettingAutoBreakFill, time.Second, 30*time.Second),
		EnableReflection: s.GetSettingBool(store.SettingEnableReflection, true),
	}
}
