package module

import (
	"time"

	"hookline/internal/platform/config"
)

// Options holds configuration settings for the retry module
type Options struct {
	Tick      time.Duration
	Take      int
	BaseDelay time.Duration
}

// FromConfig reads configuration settings from the config.Conf.
// BASE_DELAY must match the writer's capture delay or the backoff curve
// jumps between the first and second attempts
func FromConfig(cfg config.Conf) Options {
	rf := cfg.Prefix("CORE_RETRY_")
	return Options{
		Tick:      rf.MayDuration("TICK", 30*time.Second),
		Take:      rf.MayInt("TAKE", 100),
		BaseDelay: rf.MayDuration("BASE_DELAY", 30*time.Second),
	}
}
