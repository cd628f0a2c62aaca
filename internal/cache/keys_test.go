package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pricebot/internal/config"
)

func TestKeys(t *testing.T) {
	const contract = "0x8076C74C5e3F5852037F31Ff0093Eeb8c8ADd8D3"
	assert.Equal(t, "pricebot:price:previous:0x8076c74c5e3f5852037f31ff0093eeb8c8add8d3", PricePreviousKey(contract))
	assert.Equal(t, "pricebot:snapshot:latest:0xabc", SnapshotLatestKey(" 0xABC "))
	assert.Equal(t, "pricebot:price:previous", PricePreviousKey(""))
}

func TestTTLSet(t *testing.T) {
	ttl := NewTTLSet(config.CacheTTL{Short: 0, Medium: 120, Long: -1})
	assert.Equal(t, time.Minute, ttl.Short)
	assert.Equal(t, 2*time.Minute, ttl.Medium)
	assert.Equal(t, time.Duration(0), ttl.Long)
	assert.Equal(t, time.Duration(0), ttl.Duration("unknown"))

	ttl = NewTTLSet(config.CacheTTL{Short: 60, Medium: 300, Long: 3600})
	assert.Equal(t, time.Hour, SnapshotTTL(ttl))
	assert.Equal(t, 24*time.Hour, PreviousPriceTTL(ttl))
	assert.Equal(t, 30*time.Second, ttl.Scaled(TTLShort, 0.5))
}
