package svc

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "pricebot/internal/cache"
	"pricebot/internal/config"
	"pricebot/internal/model"
	marketpersist "pricebot/internal/persistence/market"
	"pricebot/pkg/bot"
	marketpkg "pricebot/pkg/market"
	"pricebot/pkg/market/sources"
	"pricebot/pkg/stats"
)

type ServiceContext struct {
	Config config.Config

	MarketConfig *marketpkg.Config
	Sources      sources.Set
	Aggregator   *stats.Aggregator

	// Optional storage, injected only when configured.
	DBConn           sqlx.SqlConn
	PriceLatestModel model.PriceLatestModel
	Redis            *redis.Redis
	Cache            gocache.Cache
	Store            *marketpersist.Service
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	if c.Market.Value == nil {
		return nil, fmt.Errorf("svc: market config not loaded")
	}
	svc := &ServiceContext{
		Config:       c,
		MarketConfig: c.Market.Value,
	}
	svc.Sources = sources.Build(svc.MarketConfig)
	svc.Aggregator = stats.New(svc.MarketConfig.Token, svc.Sources.Price, svc.Sources.Burn, svc.Sources.Widget)

	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		if db, err := conn.RawDB(); err == nil {
			db.SetMaxOpenConns(c.Postgres.MaxOpen)
			db.SetMaxIdleConns(c.Postgres.MaxIdle)
		}
		svc.DBConn = conn
		svc.PriceLatestModel = model.NewPriceLatestModel(conn)
	}

	if c.Redis.Host != "" {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			return nil, fmt.Errorf("svc: redis: %w", err)
		}
		svc.Redis = rds
		svc.Cache = gocache.NewNode(rds, syncx.NewSingleFlight(), gocache.NewStat(c.Name), sqlx.ErrNotFound)
	}

	svc.Store = marketpersist.NewService(marketpersist.Config{
		PriceLatestModel: svc.PriceLatestModel,
		Cache:            svc.Cache,
		TTL:              cachekeys.NewTTLSet(c.TTL),
	})
	return svc, nil
}

// CheckStorage pings the configured stores and creates the snapshot table.
// Nothing is checked when no storage is configured.
func (s *ServiceContext) CheckStorage(ctx context.Context) error {
	if s.DBConn != nil {
		db, err := s.DBConn.RawDB()
		if err != nil {
			return fmt.Errorf("svc: postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("svc: postgres ping: %w", err)
		}
		logx.WithContext(ctx).Info("svc: postgres reachable")
	}
	if s.Redis != nil {
		if !s.Redis.PingCtx(ctx) {
			return fmt.Errorf("svc: redis ping %s failed", s.Config.Redis.Host)
		}
		logx.WithContext(ctx).Info("svc: redis reachable")
	}
	return s.Store.EnsureSchema(ctx)
}

// NewBot assembles the scheduler around the given chat transport.
func (s *ServiceContext) NewBot(chat bot.Chat) *bot.Bot {
	var opts []bot.Option
	if s.Store != nil {
		opts = append(opts, bot.WithRecorder(s.Store), bot.WithPriceMemory(s.Store))
	}
	return bot.New(s.Config.BotConfig(), chat, s.Aggregator, opts...)
}
