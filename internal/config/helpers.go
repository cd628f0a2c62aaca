package config

import (
	"pricebot/pkg/bot"
	"pricebot/pkg/market"
	"pricebot/pkg/present"
)

// MustLoadMarket loads etc/market.yaml from the project root and panics on error.
// It lets tools that only talk to the upstreams skip the main config.
func MustLoadMarket() *market.Config {
	return market.MustLoad()
}

// Indicators returns the tick indicators with unset entries defaulted.
func (c *Config) Indicators() present.Indicators {
	ind := present.DefaultIndicators()
	if c.Presentation.UpIndicator != "" {
		ind.Up = c.Presentation.UpIndicator
	}
	if c.Presentation.DownIndicator != "" {
		ind.Down = c.Presentation.DownIndicator
	}
	return ind
}

// Branding returns the summary branding; the explorer link follows the market
// token config.
func (c *Config) Branding() present.Branding {
	p := c.Presentation
	b := present.Branding{
		Description:  p.Description,
		Color:        p.Color,
		Footer:       p.Footer,
		ThumbnailURL: p.ThumbnailURL,
		AuthorName:   p.AuthorName,
		AuthorURL:    p.AuthorURL,
	}
	if c.Market.Value != nil {
		b.ExplorerURL = c.Market.Value.Token.ExplorerURL
	}
	return b
}

// BotConfig maps the schedule and chat settings onto the dispatcher config.
func (c *Config) BotConfig() bot.Config {
	cfg := bot.DefaultConfig()
	cfg.Interval = c.Schedule.Interval
	cfg.CycleTimeout = c.Schedule.CycleTimeout
	cfg.StatusEnabled = c.Schedule.Status
	cfg.SummaryEnabled = c.Schedule.Summary
	cfg.SummaryChannel = c.Discord.SummaryChannel
	if len(c.Discord.Commands) > 0 {
		cfg.Commands = c.Discord.Commands
	}
	cfg.Indicators = c.Indicators()
	cfg.Branding = c.Branding()
	if c.Market.Value != nil {
		cfg.Contract = c.Market.Value.Token.Contract
	}
	return cfg
}
