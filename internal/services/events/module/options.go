package module

import (
	"time"

	"hookline/internal/platform/config"
)

// Options holds configuration settings for the events module
type Options struct {
	ChunkSize  int
	BaseDelay  time.Duration
	MaxRetries int
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	ef := cfg.Prefix("CORE_EVENTS_")
	return Options{
		ChunkSize:  ef.MayInt("CHUNK_SIZE", 50),
		BaseDelay:  ef.MayDuration("RETRY_BASE_DELAY", 30*time.Second),
		MaxRetries: ef.MayInt("MAX_RETRIES", 5),
	}
}
