package marketpersist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"

	cachekeys "pricebot/internal/cache"
	"pricebot/internal/model"
	"pricebot/pkg/stats"
)

// Service persists delivered snapshots to Postgres and mirrors the hot values
// into Redis. Every dependency is optional; a nil Service is a no-op.
type Service struct {
	priceLatestModel model.PriceLatestModel
	cache            gocache.Cache
	ttl              cachekeys.TTLSet
}

// Config enumerates dependencies required to persist market data.
type Config struct {
	PriceLatestModel model.PriceLatestModel
	Cache            gocache.Cache
	TTL              cachekeys.TTLSet
}

// NewService wires a market persistence service. Returns nil when neither a
// model nor a cache is configured.
func NewService(cfg Config) *Service {
	if cfg.PriceLatestModel == nil && cfg.Cache == nil {
		return nil
	}
	return &Service{
		priceLatestModel: cfg.PriceLatestModel,
		cache:            cfg.Cache,
		ttl:              cfg.TTL,
	}
}

type cachedPrice struct {
	Price string `json:"price"`
	TS    int64  `json:"ts"`
}

type cachedSnapshot struct {
	Contract    string `json:"contract"`
	Symbol      string `json:"symbol"`
	Price       string `json:"price"`
	TotalSupply string `json:"total_supply"`
	Burned      string `json:"burned"`
	Circulating string `json:"circulating"`
	MarketCap   string `json:"market_cap"`
	Change1h    string `json:"change_1h"`
	Change24h   string `json:"change_24h"`
	Change7d    string `json:"change_7d"`
	Volume24h   string `json:"volume_24h"`
	CapturedMS  int64  `json:"captured_ms"`
}

// EnsureSchema creates the snapshot table when a database is configured.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if s == nil || s.priceLatestModel == nil {
		return nil
	}
	return s.priceLatestModel.EnsureTable(ctx)
}

// RecordSnapshot upserts the snapshot row and refreshes the Redis mirror.
// Cache failures are logged; database failures are returned.
func (s *Service) RecordSnapshot(ctx context.Context, snap stats.MarketSnapshot) error {
	if s == nil {
		return nil
	}
	if strings.TrimSpace(snap.Contract) == "" {
		return errors.New("marketpersist: snapshot without contract")
	}
	if s.priceLatestModel != nil {
		if err := s.priceLatestModel.Upsert(ctx, toRow(snap)); err != nil {
			return fmt.Errorf("marketpersist: record snapshot: %w", err)
		}
	}
	s.cacheSnapshot(ctx, snap)
	return nil
}

// LatestSnapshot reads the last recorded snapshot, trying Redis before
// Postgres. ok is false when nothing has been recorded yet.
func (s *Service) LatestSnapshot(ctx context.Context, contract string) (stats.MarketSnapshot, bool, error) {
	if s == nil {
		return stats.MarketSnapshot{}, false, nil
	}
	if s.cache != nil {
		var payload cachedSnapshot
		err := s.cache.GetCtx(ctx, cachekeys.SnapshotLatestKey(contract), &payload)
		switch {
		case err == nil:
			snap, perr := fromCached(payload)
			if perr == nil {
				return snap, true, nil
			}
			logx.WithContext(ctx).Errorf("marketpersist: decode cached snapshot contract=%s err=%v", contract, perr)
		case !s.cache.IsNotFound(err):
			logx.WithContext(ctx).Errorf("marketpersist: load cached snapshot contract=%s err=%v", contract, err)
		}
	}
	if s.priceLatestModel == nil {
		return stats.MarketSnapshot{}, false, nil
	}
	row, err := s.priceLatestModel.FindOne(ctx, contract)
	if errors.Is(err, model.ErrNotFound) {
		return stats.MarketSnapshot{}, false, nil
	}
	if err != nil {
		return stats.MarketSnapshot{}, false, fmt.Errorf("marketpersist: latest snapshot: %w", err)
	}
	snap, err := fromRow(row)
	if err != nil {
		return stats.MarketSnapshot{}, false, fmt.Errorf("marketpersist: latest snapshot: %w", err)
	}
	s.cacheSnapshot(ctx, snap)
	return snap, true, nil
}

// LoadPrevious returns the price the next tick compares against.
func (s *Service) LoadPrevious(ctx context.Context, contract string) (decimal.Decimal, bool, error) {
	if s == nil || s.cache == nil {
		return decimal.Decimal{}, false, nil
	}
	var payload cachedPrice
	err := s.cache.GetCtx(ctx, cachekeys.PricePreviousKey(contract), &payload)
	if err != nil {
		if s.cache.IsNotFound(err) {
			return decimal.Decimal{}, false, nil
		}
		return decimal.Decimal{}, false, fmt.Errorf("marketpersist: load previous price: %w", err)
	}
	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("marketpersist: previous price %q: %w", payload.Price, err)
	}
	return price, true, nil
}

// SavePrevious stores the price the next tick compares against.
func (s *Service) SavePrevious(ctx context.Context, contract string, price decimal.Decimal) error {
	if s == nil || s.cache == nil {
		return nil
	}
	ttl := cachekeys.PreviousPriceTTL(s.ttl)
	if ttl <= 0 {
		return nil
	}
	payload := cachedPrice{Price: price.String(), TS: time.Now().UTC().UnixMilli()}
	if err := s.cache.SetWithExpireCtx(ctx, cachekeys.PricePreviousKey(contract), payload, ttl); err != nil {
		return fmt.Errorf("marketpersist: save previous price: %w", err)
	}
	return nil
}

func (s *Service) cacheSnapshot(ctx context.Context, snap stats.MarketSnapshot) {
	if s.cache == nil {
		return
	}
	ttl := cachekeys.SnapshotTTL(s.ttl)
	if ttl <= 0 {
		return
	}
	key := cachekeys.SnapshotLatestKey(snap.Contract)
	if err := s.cache.SetWithExpireCtx(ctx, key, toCached(snap), ttl); err != nil {
		logx.WithContext(ctx).Errorf("marketpersist: cache snapshot key=%s err=%v", key, err)
	}
}

func toRow(snap stats.MarketSnapshot) *model.PriceLatest {
	captured := snap.CapturedAt
	if captured.IsZero() {
		captured = time.Now()
	}
	return &model.PriceLatest{
		Contract:    snap.Contract,
		Symbol:      snap.Symbol,
		Price:       snap.Price.Value.String(),
		Burned:      snap.Burned.String(),
		Circulating: snap.Circulating.String(),
		MarketCap:   snap.MarketCap.String(),
		Change1h:    snap.Change1h.String(),
		Change24h:   snap.Change24h.String(),
		Change7d:    snap.Change7d.String(),
		CapturedAt:  captured,
	}
}

func fromRow(row *model.PriceLatest) (stats.MarketSnapshot, error) {
	price, err := stats.ParsePrice(row.Price)
	if err != nil {
		return stats.MarketSnapshot{}, err
	}
	snap := stats.MarketSnapshot{
		Contract:   row.Contract,
		Symbol:     row.Symbol,
		Price:      price,
		CapturedAt: row.CapturedAt,
	}
	err = parseDecimals(
		[]string{row.Burned, row.Circulating, row.MarketCap, row.Change1h, row.Change24h, row.Change7d},
		[]*decimal.Decimal{&snap.Burned, &snap.Circulating, &snap.MarketCap, &snap.Change1h, &snap.Change24h, &snap.Change7d},
	)
	if err != nil {
		return stats.MarketSnapshot{}, err
	}
	snap.TotalSupply = snap.Burned.Add(snap.Circulating)
	return snap, nil
}

func toCached(snap stats.MarketSnapshot) cachedSnapshot {
	return cachedSnapshot{
		Contract:    snap.Contract,
		Symbol:      snap.Symbol,
		Price:       snap.Price.Value.String(),
		TotalSupply: snap.TotalSupply.String(),
		Burned:      snap.Burned.String(),
		Circulating: snap.Circulating.String(),
		MarketCap:   snap.MarketCap.String(),
		Change1h:    snap.Change1h.String(),
		Change24h:   snap.Change24h.String(),
		Change7d:    snap.Change7d.String(),
		Volume24h:   snap.Volume24h.String(),
		CapturedMS:  snap.CapturedAt.UTC().UnixMilli(),
	}
}

func fromCached(payload cachedSnapshot) (stats.MarketSnapshot, error) {
	price, err := stats.ParsePrice(payload.Price)
	if err != nil {
		return stats.MarketSnapshot{}, err
	}
	snap := stats.MarketSnapshot{
		Contract:   payload.Contract,
		Symbol:     payload.Symbol,
		Price:      price,
		CapturedAt: time.UnixMilli(payload.CapturedMS).UTC(),
	}
	err = parseDecimals(
		[]string{payload.TotalSupply, payload.Burned, payload.Circulating, payload.MarketCap,
			payload.Change1h, payload.Change24h, payload.Change7d, payload.Volume24h},
		[]*decimal.Decimal{&snap.TotalSupply, &snap.Burned, &snap.Circulating, &snap.MarketCap,
			&snap.Change1h, &snap.Change24h, &snap.Change7d, &snap.Volume24h},
	)
	if err != nil {
		return stats.MarketSnapshot{}, err
	}
	return snap, nil
}

func parseDecimals(values []string, dst []*decimal.Decimal) error {
	for i, raw := range values {
		if raw == "" {
			*dst[i] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("decimal %q: %w", raw, err)
		}
		*dst[i] = d
	}
	return nil
}
