package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the public schedule response cache.
// Only GET is cached by default; schedules change on organizer saves, so the
// TTL stays short.  KeyStrategy picks which request parts form the key.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables with defaults.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "schedcache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}

// DraftConfig controls how long an unsaved schedule draft survives.  A draft
// lives for one editing visit; the TTL is refreshed on every change.
type DraftConfig struct {
	TTL    time.Duration
	Prefix string
}

// LoadDraftConfig reads DRAFT_TTL and DRAFT_PREFIX.
func LoadDraftConfig() DraftConfig {
	cfg := DraftConfig{
		TTL:    envDur("DRAFT_TTL", 2*time.Hour),
		Prefix: envStr("DRAFT_PREFIX", "draft"),
	}
	if cfg.TTL < time.Minute {
		cfg.TTL = time.Minute
	}
	return cfg
}
