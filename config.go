package actiongate

import "time"

// Config holds configuration for the ActionSystem.
type Config struct {
	// CacheTTL is the time-to-live for cached permission check results.
	// The ActionSystem does not apply it to the Cache set via WithCache;
	// each cache implementation takes its TTL from its own options.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// MaxPendingAge is how long a PENDING action may remain unapproved
	// before an embedding reaper considers it stale. The core itself never
	// expires actions (EXPIRED is reserved, never produced); this value is
	// exposed for an embedding collaborator's own housekeeping.
	MaxPendingAge time.Duration `json:"max_pending_age,omitempty"`

	// EnableCache toggles whether Check results are cached at all, even
	// when a Cache is configured. Defaults to true.
	EnableCache *bool `json:"enable_cache,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		CacheTTL:      5 * time.Minute,
		MaxPendingAge: 24 * time.Hour,
		EnableCache:   &t,
	}
}

func (c Config) cacheEnabled() bool { return c.EnableCache == nil || *c.EnableCache }
