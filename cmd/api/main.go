package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vivi-learn/poe-api-proxy/internal/config"
	internalhttp "github.com/vivi-learn/poe-api-proxy/internal/http"
	"github.com/vivi-learn/poe-api-proxy/internal/services"
)

func main() {
	_ = godotenv.Load(".env", ".env.local")

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()
	store := services.NewStore(cfg)
	backend := "memory"
	if _, ok := store.(*services.RedisStore); ok {
		backend = "redis"
	}

	trade := services.NewTradeService(cfg, store, log)
	h := internalhttp.NewRouter(cfg, trade, backend, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("poe-api-proxy listening",
		zap.String("addr", srv.Addr),
		zap.String("cache", backend))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
}
