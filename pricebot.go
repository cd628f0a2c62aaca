package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"pricebot/internal/cli"
	"pricebot/internal/config"
	"pricebot/internal/svc"
	"pricebot/pkg/bot"
	"pricebot/pkg/bot/discordchat"
)

var configFile = flag.String("f", "etc/pricebot.yaml", "the config file")

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	logx.MustSetup(cfg.Log)
	defer logx.Close()
	cli.LogConfigSummary(cfg)

	if err := cfg.RequireDiscord(); err != nil {
		logx.Must(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCtx, err := svc.NewServiceContext(*cfg)
	logx.Must(err)
	logx.Must(svcCtx.CheckStorage(ctx))

	chat, err := discordchat.New(cfg.Discord.Token, cfg.Discord.CommandPrefix)
	logx.Must(err)
	logx.Must(chat.Open(ctx))
	defer chat.Close()

	b := svcCtx.NewBot(chat)
	logx.Must(b.Start(ctx))

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", bot.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logx.Errorf("metrics server: %v", err)
			}
		}()
		logx.Infof("metrics listening on %s/metrics", cfg.MetricsAddr)
	}

	<-ctx.Done()
	logx.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.Stop(shutdownCtx); err != nil {
		logx.Errorf("bot stop: %v", err)
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
}
