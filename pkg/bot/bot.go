// Package bot schedules the periodic market summary and answers on-demand
// price commands over a chat boundary.
package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/singleflight"

	"pricebot/pkg/market"
	"pricebot/pkg/present"
	"pricebot/pkg/stats"
)

// Chat is the messaging platform as seen by the bot.
type Chat interface {
	SetStatus(ctx context.Context, text string) error
	SendText(ctx context.Context, channelID, text string) error
	SendEmbed(ctx context.Context, channelID string, embed discord.Embed) error
	OnCommand(keyword string, handler func(ctx context.Context, channelID string))
}

// Pipeline computes prices and snapshots. *stats.Aggregator implements it.
type Pipeline interface {
	ComputePrice(ctx context.Context) market.Result[stats.PriceQuote]
	ComputeSnapshot(ctx context.Context) (stats.MarketSnapshot, error)
}

// SnapshotRecorder persists the latest delivered snapshot.
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context, snap stats.MarketSnapshot) error
}

// PriceMemory keeps the last ticked price across restarts.
type PriceMemory interface {
	LoadPrevious(ctx context.Context, contract string) (decimal.Decimal, bool, error)
	SavePrevious(ctx context.Context, contract string, price decimal.Decimal) error
}

// Config holds scheduler configuration.
type Config struct {
	Contract       string        // Tracked contract, keys PriceMemory
	Interval       time.Duration // Summary period (default: 5m)
	CycleTimeout   time.Duration // Upper bound for one cycle or command (default: 60s)
	SummaryChannel string        // Channel receiving the periodic summary
	StatusEnabled  bool
	SummaryEnabled bool
	Commands       []string // Command keywords answered with a price tick
	Indicators     present.Indicators
	Branding       present.Branding
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:       5 * time.Minute,
		CycleTimeout:   60 * time.Second,
		StatusEnabled:  true,
		SummaryEnabled: true,
		Commands:       []string{"price"},
		Indicators:     present.DefaultIndicators(),
		Branding:       present.DefaultBranding(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = d.CycleTimeout
	}
	if len(c.Commands) == 0 {
		c.Commands = d.Commands
	}
	return c
}

// CycleReport summarises one scheduled cycle.
type CycleReport struct {
	Outcome       string
	StatusUpdated bool
	SummarySent   bool
	Coalesced     bool // the tick joined a cycle that was already running
	Err           error
}

const cycleKey = "cycle"

// Bot drives the chat boundary from the market pipeline.
type Bot struct {
	cfg      Config
	chat     Chat
	pipeline Pipeline
	recorder SnapshotRecorder
	memory   PriceMemory
	metrics  *Metrics
	history  *present.PriceHistory

	cycles singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Bot.
type Option func(*Bot)

// WithRecorder persists every delivered snapshot.
func WithRecorder(r SnapshotRecorder) Option {
	return func(b *Bot) { b.recorder = r }
}

// WithPriceMemory restores and saves the tick history.
func WithPriceMemory(m PriceMemory) Option {
	return func(b *Bot) { b.memory = m }
}

// New creates a new Bot.
func New(cfg Config, chat Chat, pipeline Pipeline, opts ...Option) *Bot {
	b := &Bot{
		cfg:      cfg.withDefaults(),
		chat:     chat,
		pipeline: pipeline,
		metrics:  DefaultMetrics,
		history:  &present.PriceHistory{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// History exposes the tick history.
func (b *Bot) History() *present.PriceHistory { return b.history }

// Start registers command handlers, restores the tick history and begins the
// schedule. The first cycle runs immediately.
func (b *Bot) Start(ctx context.Context) error {
	if b.chat == nil || b.pipeline == nil {
		return errors.New("bot: chat and pipeline are required")
	}
	b.ctx, b.cancel = context.WithCancel(ctx)

	for _, kw := range b.cfg.Commands {
		b.chat.OnCommand(strings.ToLower(kw), b.HandlePriceCommand)
	}
	b.restoreHistory(b.ctx)

	b.wg.Add(1)
	go b.run()

	logx.Infof("bot: scheduler started, interval=%s summary_channel=%q commands=%v",
		b.cfg.Interval, b.cfg.SummaryChannel, b.cfg.Commands)
	return nil
}

// Stop cancels the schedule and waits for in-flight cycles to finish.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("bot: scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	b.RunCycle(b.ctx)

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			// Each tick runs on its own goroutine so a slow cycle never
			// delays the next tick; RunCycle coalesces the overlap.
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.RunCycle(b.ctx)
			}()
		}
	}
}

// RunCycle refreshes the presence status and delivers one summary. Calls that
// arrive while a cycle is running wait for it and share its report.
func (b *Bot) RunCycle(ctx context.Context) CycleReport {
	var led bool
	ch := b.cycles.DoChan(cycleKey, func() (any, error) {
		led = true
		return b.cycle(ctx), nil
	})
	res := <-ch
	report, _ := res.Val.(CycleReport)
	if !led {
		report.Coalesced = true
		b.metrics.CoalescedTicks.Inc()
		logx.WithContext(ctx).Infof("bot: tick coalesced onto running cycle")
	}
	return report
}

func (b *Bot) cycle(parent context.Context) CycleReport {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, b.cfg.CycleTimeout)
	defer cancel()

	var (
		report  CycleReport
		snap    stats.MarketSnapshot
		snapErr error
	)
	summaryOn := b.cfg.SummaryEnabled && b.cfg.SummaryChannel != ""
	if summaryOn {
		snap, snapErr = b.computeSnapshot(ctx)
	}

	// The status reuses the snapshot price so both surfaces agree within a cycle.
	if b.cfg.StatusEnabled {
		if summaryOn && snapErr == nil {
			report.StatusUpdated = b.setStatus(ctx, snap.Price)
		} else {
			report.StatusUpdated = b.refreshStatus(ctx)
		}
	}

	switch {
	case !summaryOn:
		report.Outcome = OutcomeSkipped
	case snapErr != nil:
		report.Outcome, report.Err = OutcomeAggregateFailed, snapErr
	default:
		report.SummarySent, report.Outcome, report.Err = b.deliverSummary(ctx, snap)
	}

	b.metrics.CyclesTotal.WithLabelValues(report.Outcome).Inc()
	b.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	return report
}

func (b *Bot) refreshStatus(ctx context.Context) bool {
	res := b.pipeline.ComputePrice(ctx)
	if !res.Ok() {
		b.fetchFailed(ctx, "status", res.Err())
		return false
	}
	return b.setStatus(ctx, res.Value())
}

func (b *Bot) setStatus(ctx context.Context, quote stats.PriceQuote) bool {
	b.observePrice(quote)
	if err := b.chat.SetStatus(ctx, present.StatusText(quote)); err != nil {
		b.dispatchFailed(ctx, &DispatchError{Op: OpSetStatus, Err: err})
		return false
	}
	return true
}

func (b *Bot) computeSnapshot(ctx context.Context) (stats.MarketSnapshot, error) {
	snap, err := b.pipeline.ComputeSnapshot(ctx)
	if err != nil {
		var aerr *stats.AggregationError
		if errors.As(err, &aerr) {
			for _, cause := range aerr.Causes {
				b.metrics.FetchFailures.WithLabelValues(cause.Source, string(cause.Kind)).Inc()
			}
		}
		logx.WithContext(ctx).Errorf("bot: summary suppressed: %v", err)
		return stats.MarketSnapshot{}, err
	}
	return snap, nil
}

func (b *Bot) deliverSummary(ctx context.Context, snap stats.MarketSnapshot) (bool, string, error) {
	b.observePrice(snap.Price)

	summary, err := present.FormatRichSummary(snap, b.cfg.Branding)
	if err != nil {
		logx.WithContext(ctx).Errorf("bot: summary suppressed: %v", err)
		return false, OutcomeFormatFailed, err
	}

	if b.recorder != nil {
		if err := b.recorder.RecordSnapshot(ctx, snap); err != nil {
			logx.WithContext(ctx).Errorf("bot: record snapshot: %v", err)
		}
	}

	if err := b.chat.SendEmbed(ctx, b.cfg.SummaryChannel, summary.Embed()); err != nil {
		derr := &DispatchError{Op: OpSendSummary, ChannelID: b.cfg.SummaryChannel, Err: err}
		b.dispatchFailed(ctx, derr)
		return false, OutcomeDispatchFailed, derr
	}
	b.metrics.LastSummaryUnix.Set(float64(snap.CapturedAt.Unix()))
	return true, OutcomeOK, nil
}

// HandlePriceCommand posts a short price tick to channelID. The trend is
// computed against the history and the history advanced in one step, before
// the send, so a failed send never replays the same comparison.
func (b *Bot) HandlePriceCommand(ctx context.Context, channelID string) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.CycleTimeout)
	defer cancel()

	res := b.pipeline.ComputePrice(ctx)
	if !res.Ok() {
		b.fetchFailed(ctx, "command", res.Err())
		return
	}
	quote := res.Value()
	if !quote.Value.IsPositive() {
		logx.WithContext(ctx).Infof("bot: price command ignored, price %s is not positive", quote.Text)
		return
	}
	b.observePrice(quote)

	tick := b.history.Advance(quote, b.cfg.Indicators)
	b.metrics.PriceCommands.WithLabelValues(tick.Trend.String()).Inc()
	b.savePrevious(ctx, quote.Value)

	if err := b.chat.SendText(ctx, channelID, tick.Content()); err != nil {
		b.dispatchFailed(ctx, &DispatchError{Op: OpSendPrice, ChannelID: channelID, Err: err})
	}
}

func (b *Bot) restoreHistory(ctx context.Context) {
	if b.memory == nil || b.cfg.Contract == "" {
		return
	}
	price, ok, err := b.memory.LoadPrevious(ctx, b.cfg.Contract)
	if err != nil {
		logx.WithContext(ctx).Errorf("bot: restore previous price: %v", err)
		return
	}
	if ok {
		b.history.Seed(price)
		logx.WithContext(ctx).Infof("bot: restored previous price %s", price)
	}
}

func (b *Bot) savePrevious(ctx context.Context, price decimal.Decimal) {
	if b.memory == nil || b.cfg.Contract == "" {
		return
	}
	if err := b.memory.SavePrevious(ctx, b.cfg.Contract, price); err != nil {
		logx.WithContext(ctx).Errorf("bot: save previous price: %v", err)
	}
}

func (b *Bot) observePrice(q stats.PriceQuote) {
	b.metrics.LastPriceObserved.Set(q.Value.InexactFloat64())
}

func (b *Bot) fetchFailed(ctx context.Context, path string, ferr *market.FetchError) {
	if ferr == nil {
		return
	}
	b.metrics.FetchFailures.WithLabelValues(ferr.Source, string(ferr.Kind)).Inc()
	logx.WithContext(ctx).Errorf("bot: %s price unavailable: %v", path, ferr)
}

func (b *Bot) dispatchFailed(ctx context.Context, err *DispatchError) {
	b.metrics.DispatchFailures.WithLabelValues(err.Op).Inc()
	logx.WithContext(ctx).Errorf("bot: %v", err)
}
