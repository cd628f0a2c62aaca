package cache

import (
	"strings"
	"time"

	"pricebot/internal/config"
)

// Namespace is the Redis key prefix for the bot.
const Namespace = "pricebot"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, time.Minute),
		Medium: durationOrDefault(cfg.Medium, 5*time.Minute),
		Long:   durationOrDefault(cfg.Long, time.Hour),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// Scaled applies a multiplier to a TTL class.
func (t TTLSet) Scaled(class TTLClass, factor float64) time.Duration {
	base := t.Duration(class)
	if base <= 0 || factor <= 0 {
		return base
	}
	return time.Duration(float64(base) * factor)
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.ToLower(strings.TrimSpace(part))
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// PricePreviousKey holds the price the next tick compares against.
func PricePreviousKey(contract string) string {
	return formatKey("price", "previous", contract)
}

// SnapshotLatestKey holds the last delivered market snapshot.
func SnapshotLatestKey(contract string) string {
	return formatKey("snapshot", "latest", contract)
}

// SnapshotTTL keeps the last snapshot readable across short outages.
func SnapshotTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// PreviousPriceTTL outlives restarts and deploys.
func PreviousPriceTTL(ttl TTLSet) time.Duration {
	return ttl.Scaled(TTLLong, 24)
}
