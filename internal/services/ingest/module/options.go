package module

import (
	"time"

	"hookline/internal/core/signature"
	"hookline/internal/platform/config"
)

// Options holds configuration settings for the ingest module
type Options struct {
	Secrets signature.Secrets

	BatchingEnabled bool
	BatchSize       int
	BatchInterval   time.Duration

	DedupTTL   time.Duration
	SweepEvery time.Duration
}

// FromConfig reads configuration settings from the config.Conf.
// Secrets default to empty; a provider without a secret rejects every
// delivery, which is the safe failure mode
func FromConfig(cfg config.Conf) Options {
	inf := cfg.Prefix("CORE_INGEST_")
	return Options{
		Secrets: signature.Secrets{
			GitHub: inf.MayString("GITHUB_SECRET", ""),
			Linear: inf.MayString("LINEAR_SECRET", ""),
			Slack:  inf.MayString("SLACK_SIGNING_SECRET", ""),
		},
		BatchingEnabled: inf.MayBool("BATCHING_ENABLED", true),
		BatchSize:       inf.MayInt("BATCH_SIZE", 10),
		BatchInterval:   inf.MayDuration("BATCH_INTERVAL", 10*time.Second),
		DedupTTL:        inf.MayDuration("DEDUP_TTL", 5*time.Second),
		SweepEvery:      inf.MayDuration("DEDUP_SWEEP_EVERY", 30*time.Second),
	}
}
