package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"pricebot/internal/config"
	"pricebot/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
// Secrets are reported by presence only.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Discord token: %s", presence(strings.TrimSpace(cfg.Discord.Token) != "")),
		fmt.Sprintf("Summary channel: %s", valueOr(cfg.Discord.SummaryChannel, "not configured")),
		fmt.Sprintf("Commands: %s%s", cfg.Discord.CommandPrefix, strings.Join(commandList(cfg), ", "+cfg.Discord.CommandPrefix)),
		fmt.Sprintf("Schedule: every %s (timeout %s, status=%t, summary=%t)",
			cfg.Schedule.Interval, cfg.Schedule.CycleTimeout, cfg.Schedule.Status, cfg.Schedule.Summary),
		fmt.Sprintf("Postgres: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Redis: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		fmt.Sprintf("TTL (short/medium/long): %ds / %ds / %ds", cfg.TTL.Short, cfg.TTL.Medium, cfg.TTL.Long),
		fmt.Sprintf("Metrics: %s", valueOr(cfg.MetricsAddr, "disabled")),
		sectionLine("Market config", cfg.Market),
	}
	if m := cfg.Market.Value; m != nil {
		lines = append(lines,
			fmt.Sprintf("Token: %s (cmc id %d, burn address %s)", m.Token.Contract, m.Token.CMCID, m.Token.BurnAddress),
			fmt.Sprintf("Explorer API key: %s", presence(m.Source("bscscan").APIKey != "")),
		)
	}
	if files := confkit.DotenvFiles(); len(files) > 0 {
		lines = append(lines, fmt.Sprintf("Dotenv: %s", strings.Join(files, ", ")))
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func commandList(cfg *config.Config) []string {
	if len(cfg.Discord.Commands) == 0 {
		return []string{"price"}
	}
	return cfg.Discord.Commands
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
