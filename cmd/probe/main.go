package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricebot/internal/cli"
	"pricebot/internal/config"
	marketpersist "pricebot/internal/persistence/market"
	"pricebot/internal/svc"
	"pricebot/pkg/market"
	"pricebot/pkg/present"
	"pricebot/pkg/stats"
)

const apiTimeout = 15 * time.Second // Timeout for one probe round

var (
	configFile = flag.String("f", "etc/pricebot.yaml", "the config file")
	interval   = flag.Duration("interval", 0, "repeat probes at this interval; 0 probes once")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting upstream probe...")

	appCfg, err := config.Load(*configFile)
	if err != nil {
		log.Printf("[main] Warning: Failed to load app config: %v", err)
		log.Printf("[main] Using default configuration")
		appCfg = &config.Config{Env: "test"}
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	if appCfg.Market.Value == nil {
		appCfg.Market.Value = config.MustLoadMarket()
	}
	svcCtx, err := svc.NewServiceContext(*appCfg)
	if err != nil {
		log.Fatalf("[main] Failed to build service context: %v", err)
	}
	branding := appCfg.Branding()
	contract := svcCtx.MarketConfig.Token.Contract

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	probe(ctx, svcCtx.Aggregator, branding)
	lastDelivered(ctx, svcCtx.Store, contract)
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[main] Probe stopped")
			return
		case <-ticker.C:
			probe(ctx, svcCtx.Aggregator, branding)
			lastDelivered(ctx, svcCtx.Store, contract)
		}
	}
}

// probe runs both pipelines once and logs what would be posted.
func probe(parentCtx context.Context, agg *stats.Aggregator, branding present.Branding) {
	if parentCtx.Err() != nil {
		return
	}

	func() {
		ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
		defer cancel()

		start := time.Now()
		res := agg.ComputePrice(ctx)
		elapsed := time.Since(start)

		if !res.Ok() {
			logFetchError("price", res.Err(), elapsed)
			return
		}
		log.Printf("[price] [OK] %s, took %dms", present.StatusText(res.Value()), elapsed.Milliseconds())
	}()

	func() {
		ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
		defer cancel()

		start := time.Now()
		snap, err := agg.ComputeSnapshot(ctx)
		elapsed := time.Since(start)

		if err != nil {
			var aerr *stats.AggregationError
			if errors.As(err, &aerr) {
				for _, cause := range aerr.Causes {
					logFetchError("snapshot", cause, elapsed)
				}
				return
			}
			log.Printf("[snapshot] [ERROR] %v, took %dms", err, elapsed.Milliseconds())
			return
		}

		summary, err := present.FormatRichSummary(snap, branding)
		if err != nil {
			log.Printf("[summary] [ERROR] %v", err)
			return
		}
		log.Printf("[snapshot] [OK] %s, took %dms", summary.Title, elapsed.Milliseconds())
		for _, f := range summary.Fields {
			log.Printf("  - %s: %s", f.Name, f.Value)
		}
	}()
}

// lastDelivered logs the snapshot the bot recorded most recently, for
// comparison with the live one.
func lastDelivered(parentCtx context.Context, store *marketpersist.Service, contract string) {
	if store == nil {
		log.Println("[store] [SKIP] storage not configured")
		return
	}
	ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
	defer cancel()

	start := time.Now()
	snap, ok, err := store.LatestSnapshot(ctx, contract)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		log.Printf("[store] [ERROR] %v, took %dms", err, elapsed.Milliseconds())
	case !ok:
		log.Printf("[store] [OK] no snapshot recorded for %s, took %dms", contract, elapsed.Milliseconds())
	default:
		log.Printf("[store] [OK] last delivered at %s: price=%s market_cap=%sM burned=%sT, took %dms",
			snap.CapturedAt.Format(time.RFC3339), snap.Price.Text, snap.MarketCap.StringFixed(4),
			snap.Burned.StringFixed(4), elapsed.Milliseconds())
	}
}

func logFetchError(stage string, ferr *market.FetchError, elapsed time.Duration) {
	if ferr == nil {
		return
	}
	log.Printf("[%s.%s] [ERROR] kind=%s %v, took %dms", stage, ferr.Source, ferr.Kind, ferr, elapsed.Milliseconds())
}
