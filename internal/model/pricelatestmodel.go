package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ PriceLatestModel = (*defaultPriceLatestModel)(nil)

const priceLatestTable = `public.price_latest`

// PriceLatestSchema creates the single-row-per-contract snapshot table.
const PriceLatestSchema = `
CREATE TABLE IF NOT EXISTS public.price_latest (
    contract      TEXT PRIMARY KEY,
    symbol        TEXT NOT NULL DEFAULT '',
    price         NUMERIC NOT NULL,
    burned        NUMERIC NOT NULL,
    circulating   NUMERIC NOT NULL,
    market_cap    NUMERIC NOT NULL,
    change_1h     NUMERIC NOT NULL,
    change_24h    NUMERIC NOT NULL,
    change_7d     NUMERIC NOT NULL,
    captured_at   TIMESTAMPTZ NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

type (
	// PriceLatestModel reads and writes the latest snapshot per contract.
	PriceLatestModel interface {
		EnsureTable(ctx context.Context) error
		Upsert(ctx context.Context, data *PriceLatest) error
		FindOne(ctx context.Context, contract string) (*PriceLatest, error)
	}

	defaultPriceLatestModel struct {
		conn  sqlx.SqlConn
		table string
	}

	// PriceLatest is one row of price_latest. Numeric columns travel as
	// strings to keep full precision.
	PriceLatest struct {
		Contract    string    `db:"contract"`
		Symbol      string    `db:"symbol"`
		Price       string    `db:"price"`
		Burned      string    `db:"burned"`
		Circulating string    `db:"circulating"`
		MarketCap   string    `db:"market_cap"`
		Change1h    string    `db:"change_1h"`
		Change24h   string    `db:"change_24h"`
		Change7d    string    `db:"change_7d"`
		CapturedAt  time.Time `db:"captured_at"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}
)

// NewPriceLatestModel returns a model for the database table.
func NewPriceLatestModel(conn sqlx.SqlConn) PriceLatestModel {
	return &defaultPriceLatestModel{
		conn:  conn,
		table: priceLatestTable,
	}
}

func (m *defaultPriceLatestModel) EnsureTable(ctx context.Context) error {
	if _, err := m.conn.ExecCtx(ctx, PriceLatestSchema); err != nil {
		return fmt.Errorf("price_latest.EnsureTable: %w", err)
	}
	return nil
}

func (m *defaultPriceLatestModel) Upsert(ctx context.Context, data *PriceLatest) error {
	query := fmt.Sprintf(`
INSERT INTO %s (
    contract, symbol, price, burned, circulating, market_cap, change_1h, change_24h, change_7d, captured_at, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
)
ON CONFLICT (contract) DO UPDATE SET
    symbol = EXCLUDED.symbol,
    price = EXCLUDED.price,
    burned = EXCLUDED.burned,
    circulating = EXCLUDED.circulating,
    market_cap = EXCLUDED.market_cap,
    change_1h = EXCLUDED.change_1h,
    change_24h = EXCLUDED.change_24h,
    change_7d = EXCLUDED.change_7d,
    captured_at = EXCLUDED.captured_at,
    updated_at = NOW();`, m.table)
	_, err := m.conn.ExecCtx(ctx, query,
		data.Contract,
		data.Symbol,
		data.Price,
		data.Burned,
		data.Circulating,
		data.MarketCap,
		data.Change1h,
		data.Change24h,
		data.Change7d,
		data.CapturedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("price_latest.Upsert %s: %w", data.Contract, err)
	}
	return nil
}

func (m *defaultPriceLatestModel) FindOne(ctx context.Context, contract string) (*PriceLatest, error) {
	query := fmt.Sprintf(`
SELECT contract, symbol, price::text AS price, burned::text AS burned, circulating::text AS circulating,
       market_cap::text AS market_cap, change_1h::text AS change_1h, change_24h::text AS change_24h,
       change_7d::text AS change_7d, captured_at, created_at, updated_at
FROM %s
WHERE contract = $1
LIMIT 1`, m.table)
	var resp PriceLatest
	err := m.conn.QueryRowCtx(ctx, &resp, query, contract)
	switch {
	case err == nil:
		return &resp, nil
	case errors.Is(err, sqlx.ErrNotFound):
		return nil, ErrNotFound
	default:
		return nil, err
	}
}
