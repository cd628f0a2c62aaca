package present

import (
	"testing"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebot/pkg/stats"
)

const contract = "0x8076C74C5e3F5852037F31Ff0093Eeb8c8ADd8D3"

func snapshot(t *testing.T) stats.MarketSnapshot {
	t.Helper()
	price, err := stats.ParsePrice("0.000000321")
	require.NoError(t, err)
	burned := decimal.RequireFromString("0.5000")
	total := decimal.NewFromInt(1000)
	circ := total.Sub(burned)
	return stats.MarketSnapshot{
		Contract:    contract,
		Price:       price,
		TotalSupply: total,
		Burned:      burned,
		Circulating: circ,
		MarketCap:   stats.MarketCap(circ, 1_000_000, price.Value),
		Change1h:    decimal.RequireFromString("1.2345"),
		Change24h:   decimal.RequireFromString("-3.4567"),
		Change7d:    decimal.RequireFromString("10"),
		CapturedAt:  time.Date(2021, 4, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatRichSummary(t *testing.T) {
	s, err := FormatRichSummary(snapshot(t), Branding{})
	require.NoError(t, err)

	require.Len(t, s.Fields, SummaryFieldCount)
	want := []Field{
		{Name: FieldPrice, Value: "$0.000000321"},
		{Name: FieldVolume, Value: "Disabled"},
		{Name: FieldMarketCap, Value: "320.8395M"},
		{Name: FieldTotalSupply, Value: "1000T"},
		{Name: FieldBurned, Value: "0.5000T"},
		{Name: FieldCirculating, Value: "999.50T"},
		{Name: FieldChange1h, Value: "⬆️ 1.2345%"},
		{Name: FieldChange24h, Value: "⬇️ -3.4567%"},
		{Name: FieldChange7d, Value: "⬆️ 10.0000%"},
	}
	assert.Equal(t, want, s.Fields)

	assert.Equal(t, "**"+contract+"**", s.Title)
	assert.Equal(t, "https://bscscan.com/address/"+contract, s.URL)
	assert.Equal(t, DefaultBranding().Description, s.Description)
	assert.Equal(t, 2029249, s.Color)
}

func TestFormatChangeZeroIsDown(t *testing.T) {
	assert.Equal(t, "⬇️ 0.0000%", formatChange(decimal.Zero))
	assert.Equal(t, "⬆️ 0.0001%", formatChange(decimal.RequireFromString("0.0001")))
}

func TestRichSummaryEmbed(t *testing.T) {
	s, err := FormatRichSummary(snapshot(t), Branding{ExplorerURL: "https://testnet.bscscan.com", Color: 0x00ff00})
	require.NoError(t, err)

	embed := s.Embed()
	assert.Equal(t, discord.Color(0x00ff00), embed.Color)
	assert.Equal(t, "https://testnet.bscscan.com/address/"+contract, embed.URL)
	require.NotNil(t, embed.Footer)
	assert.Equal(t, DefaultBranding().Footer, embed.Footer.Text)
	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, DefaultBranding().ThumbnailURL, embed.Thumbnail.URL)
	require.NotNil(t, embed.Author)
	assert.Equal(t, "SafeMoon Price Bot", embed.Author.Name)
	assert.Equal(t, "https://safemoon.net", embed.Author.URL)
	assert.True(t, embed.Timestamp.IsValid())
	require.Len(t, embed.Fields, SummaryFieldCount)
	for _, f := range embed.Fields {
		assert.True(t, f.Inline, f.Name)
	}
	burned, ok := s.Field(FieldBurned)
	require.True(t, ok)
	assert.Equal(t, "0.5000T", burned)
}

func TestFormatRichSummaryRejectsEmptySnapshot(t *testing.T) {
	_, err := FormatRichSummary(stats.MarketSnapshot{}, DefaultBranding())
	assert.Error(t, err)
}
