package marketpersist

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"

	cachekeys "pricebot/internal/cache"
	"pricebot/internal/model"
	"pricebot/pkg/stats"
)

const contract = "0x8076C74C5e3F5852037F31Ff0093Eeb8c8ADd8D3"

var errMiss = errors.New("cache miss")

type fakeCache struct {
	gocache.Cache
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) GetCtx(_ context.Context, key string, v any) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.data[key]
	if !ok {
		return errMiss
	}
	return json.Unmarshal(raw, v)
}

func (f *fakeCache) SetWithExpireCtx(_ context.Context, key string, v any, expire time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.data[key] = raw
	f.ttls[key] = expire
	return nil
}

func (f *fakeCache) IsNotFound(err error) bool { return errors.Is(err, errMiss) }

type fakeModel struct {
	rows      map[string]*model.PriceLatest
	upsertErr error
	ensured   int
}

func newFakeModel() *fakeModel { return &fakeModel{rows: map[string]*model.PriceLatest{}} }

func (f *fakeModel) EnsureTable(context.Context) error {
	f.ensured++
	return nil
}

func (f *fakeModel) Upsert(_ context.Context, data *model.PriceLatest) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[data.Contract] = data
	return nil
}

func (f *fakeModel) FindOne(_ context.Context, c string) (*model.PriceLatest, error) {
	row, ok := f.rows[c]
	if !ok {
		return nil, model.ErrNotFound
	}
	return row, nil
}

func testTTL() cachekeys.TTLSet {
	return cachekeys.TTLSet{Short: time.Minute, Medium: 5 * time.Minute, Long: time.Hour}
}

func sampleSnapshot(t *testing.T) stats.MarketSnapshot {
	t.Helper()
	price, err := stats.ParsePrice("0.000000321")
	require.NoError(t, err)
	return stats.MarketSnapshot{
		Contract:    contract,
		Symbol:      "SAFEMOON",
		Price:       price,
		TotalSupply: decimal.NewFromInt(1000),
		Burned:      decimal.RequireFromString("0.5"),
		Circulating: decimal.RequireFromString("999.5"),
		MarketCap:   decimal.RequireFromString("320.8395"),
		Change1h:    decimal.RequireFromString("1.2345"),
		Change24h:   decimal.RequireFromString("-3.4567"),
		Change7d:    decimal.RequireFromString("10"),
		CapturedAt:  time.Date(2021, 4, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewServiceWithoutDependencies(t *testing.T) {
	assert.Nil(t, NewService(Config{}))

	var s *Service
	require.NoError(t, s.RecordSnapshot(context.Background(), stats.MarketSnapshot{}))
	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, s.SavePrevious(context.Background(), contract, decimal.NewFromInt(1)))
	_, ok, err := s.LoadPrevious(context.Background(), contract)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordSnapshot(t *testing.T) {
	m, c := newFakeModel(), newFakeCache()
	s := NewService(Config{PriceLatestModel: m, Cache: c, TTL: testTTL()})
	snap := sampleSnapshot(t)

	require.NoError(t, s.RecordSnapshot(context.Background(), snap))

	row := m.rows[contract]
	require.NotNil(t, row)
	assert.Equal(t, "0.000000321", row.Price)
	assert.Equal(t, "320.8395", row.MarketCap)
	assert.Equal(t, "-3.4567", row.Change24h)

	assert.Contains(t, c.data, cachekeys.SnapshotLatestKey(contract))
	assert.Equal(t, time.Hour, c.ttls[cachekeys.SnapshotLatestKey(contract)])
	var cached cachedSnapshot
	require.NoError(t, json.Unmarshal(c.data[cachekeys.SnapshotLatestKey(contract)], &cached))
	assert.Equal(t, "0.000000321", cached.Price)
	assert.Equal(t, snap.CapturedAt.UnixMilli(), cached.CapturedMS)
	assert.Len(t, c.data, 1)
}

func TestRecordSnapshotErrors(t *testing.T) {
	m := newFakeModel()
	m.upsertErr = errors.New("db down")
	c := newFakeCache()
	s := NewService(Config{PriceLatestModel: m, Cache: c, TTL: testTTL()})

	err := s.RecordSnapshot(context.Background(), sampleSnapshot(t))
	assert.ErrorContains(t, err, "db down")
	assert.Empty(t, c.data, "cache must not be refreshed when the row failed")

	err = s.RecordSnapshot(context.Background(), stats.MarketSnapshot{})
	assert.ErrorContains(t, err, "without contract")
}

func TestLatestSnapshot(t *testing.T) {
	m, c := newFakeModel(), newFakeCache()
	s := NewService(Config{PriceLatestModel: m, Cache: c, TTL: testTTL()})
	ctx := context.Background()

	_, ok, err := s.LatestSnapshot(ctx, contract)
	require.NoError(t, err)
	assert.False(t, ok)

	snap := sampleSnapshot(t)
	require.NoError(t, s.RecordSnapshot(ctx, snap))

	got, ok, err := s.LatestSnapshot(ctx, contract)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.Price.Text, got.Price.Text)
	assert.True(t, snap.MarketCap.Equal(got.MarketCap))
	assert.True(t, snap.Change24h.Equal(got.Change24h))
	assert.True(t, snap.TotalSupply.Equal(got.TotalSupply))
	assert.Equal(t, snap.CapturedAt, got.CapturedAt)
}

func TestLatestSnapshotFallsBackToDatabase(t *testing.T) {
	m, c := newFakeModel(), newFakeCache()
	s := NewService(Config{PriceLatestModel: m, Cache: c, TTL: testTTL()})
	ctx := context.Background()
	snap := sampleSnapshot(t)
	m.rows[contract] = toRow(snap)

	got, ok, err := s.LatestSnapshot(ctx, contract)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Burned.Equal(snap.Burned))
	assert.True(t, got.TotalSupply.Equal(decimal.NewFromInt(1000)))
	assert.Contains(t, c.data, cachekeys.SnapshotLatestKey(contract), "read-through should warm the cache")
}

func TestPreviousPriceRoundTrip(t *testing.T) {
	c := newFakeCache()
	s := NewService(Config{Cache: c, TTL: testTTL()})
	ctx := context.Background()

	_, ok, err := s.LoadPrevious(ctx, contract)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SavePrevious(ctx, contract, decimal.RequireFromString("0.000000322")))
	assert.Equal(t, 24*time.Hour, c.ttls[cachekeys.PricePreviousKey(contract)])

	price, ok, err := s.LoadPrevious(ctx, contract)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.000000322", price.String())

	c.getErr = errors.New("redis timeout")
	_, _, err = s.LoadPrevious(ctx, contract)
	assert.ErrorContains(t, err, "redis timeout")
}

func TestEnsureSchema(t *testing.T) {
	m := newFakeModel()
	s := NewService(Config{PriceLatestModel: m})
	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.Equal(t, 1, m.ensured)
}
