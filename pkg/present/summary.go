package present

import (
	"errors"
	"fmt"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/shopspring/decimal"

	"pricebot/pkg/stats"
)

// Branding holds the static presentation fields of the rich summary.
type Branding struct {
	Description  string
	Color        int
	Footer       string
	ThumbnailURL string
	AuthorName   string
	AuthorURL    string
	ExplorerURL  string
}

// DefaultBranding returns the stock summary branding.
func DefaultBranding() Branding {
	return Branding{
		Description:  "This bot will automatically post new stats every 5 minutes.",
		Color:        2029249,
		Footer:       "SafeMoon Price Bot - Values based on USD.",
		ThumbnailURL: "https://i.imgur.com/cAjC1Pz.png",
		AuthorName:   "SafeMoon Price Bot",
		AuthorURL:    "https://safemoon.net",
		ExplorerURL:  "https://bscscan.com",
	}
}

func (b Branding) withDefaults() Branding {
	d := DefaultBranding()
	if b.Description == "" {
		b.Description = d.Description
	}
	if b.Color == 0 {
		b.Color = d.Color
	}
	if b.Footer == "" {
		b.Footer = d.Footer
	}
	if b.ThumbnailURL == "" {
		b.ThumbnailURL = d.ThumbnailURL
	}
	if b.AuthorName == "" {
		b.AuthorName = d.AuthorName
	}
	if b.AuthorURL == "" {
		b.AuthorURL = d.AuthorURL
	}
	if b.ExplorerURL == "" {
		b.ExplorerURL = d.ExplorerURL
	}
	return b
}

// Field is one labelled value of the rich summary.
type Field struct {
	Name  string
	Value string
}

// Summary field labels, in display order.
const (
	FieldPrice       = "💸 Price"
	FieldVolume      = "🧊 Volume"
	FieldMarketCap   = "💰 Market Cap"
	FieldTotalSupply = "🏦 Total Supply"
	FieldBurned      = "🔥 Total Burned"
	FieldCirculating = "💱 Circ Supply"
	FieldChange1h    = "💯 1hr Change"
	FieldChange24h   = "📈 24hr Change"
	FieldChange7d    = "📈 7D Change"
)

// SummaryFieldCount is the number of fields every summary carries.
const SummaryFieldCount = 9

const (
	arrowUp   = "⬆️"
	arrowDown = "⬇️"
)

// RichSummary is the rendered periodic stats post.
type RichSummary struct {
	Title       string
	URL         string
	Description string
	Color       int
	Timestamp   time.Time
	Footer      string
	Thumbnail   string
	AuthorName  string
	AuthorURL   string
	Fields      []Field
}

// FormatRichSummary renders snap into the nine-field summary. The result is
// validated against the chat platform's embed limits.
func FormatRichSummary(snap stats.MarketSnapshot, b Branding) (RichSummary, error) {
	if snap.Contract == "" {
		return RichSummary{}, errors.New("format summary: snapshot has no contract")
	}
	b = b.withDefaults()

	s := RichSummary{
		Title:       "**" + snap.Contract + "**",
		URL:         b.ExplorerURL + "/address/" + snap.Contract,
		Description: b.Description,
		Color:       b.Color,
		Timestamp:   snap.CapturedAt,
		Footer:      b.Footer,
		Thumbnail:   b.ThumbnailURL,
		AuthorName:  b.AuthorName,
		AuthorURL:   b.AuthorURL,
		Fields: []Field{
			{Name: FieldPrice, Value: "$" + snap.Price.Text},
			{Name: FieldVolume, Value: "Disabled"},
			{Name: FieldMarketCap, Value: snap.MarketCap.StringFixed(4) + "M"},
			{Name: FieldTotalSupply, Value: snap.TotalSupply.String() + "T"},
			{Name: FieldBurned, Value: snap.Burned.StringFixed(4) + "T"},
			{Name: FieldCirculating, Value: snap.Circulating.StringFixed(2) + "T"},
			{Name: FieldChange1h, Value: formatChange(snap.Change1h)},
			{Name: FieldChange24h, Value: formatChange(snap.Change24h)},
			{Name: FieldChange7d, Value: formatChange(snap.Change7d)},
		},
	}
	embed := s.Embed()
	if err := embed.Validate(); err != nil {
		return RichSummary{}, fmt.Errorf("format summary: %w", err)
	}
	return s, nil
}

// formatChange prefixes an up arrow only for strictly positive changes.
func formatChange(pct decimal.Decimal) string {
	arrow := arrowDown
	if pct.IsPositive() {
		arrow = arrowUp
	}
	return arrow + " " + pct.StringFixed(4) + "%"
}

// Field returns the value of the named field.
func (s RichSummary) Field(name string) (string, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Embed converts the summary into a Discord embed. All fields are inline.
func (s RichSummary) Embed() discord.Embed {
	fields := make([]discord.EmbedField, 0, len(s.Fields))
	for _, f := range s.Fields {
		fields = append(fields, discord.EmbedField{Name: f.Name, Value: f.Value, Inline: true})
	}
	embed := discord.Embed{
		Title:       s.Title,
		URL:         s.URL,
		Description: s.Description,
		Color:       discord.Color(s.Color),
		Fields:      fields,
	}
	if !s.Timestamp.IsZero() {
		embed.Timestamp = discord.NewTimestamp(s.Timestamp)
	}
	if s.Footer != "" {
		embed.Footer = &discord.EmbedFooter{Text: s.Footer}
	}
	if s.Thumbnail != "" {
		embed.Thumbnail = &discord.EmbedThumbnail{URL: s.Thumbnail}
	}
	if s.AuthorName != "" {
		embed.Author = &discord.EmbedAuthor{Name: s.AuthorName, URL: s.AuthorURL}
	}
	return embed
}
