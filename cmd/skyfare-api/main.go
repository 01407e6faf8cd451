// README: Entry point; loads config, wires the rate registry and fare engine, starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"skyfare/internal/config"
	httptransport "skyfare/internal/http"
	"skyfare/internal/infra"
	"skyfare/internal/logging"
	"skyfare/internal/maps"
	"skyfare/internal/modules/fare"
	"skyfare/internal/modules/rates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	defer dbPool.Close()

	ratesStore := rates.NewStore(dbPool)
	ratesSvc := rates.NewService(ratesStore, log)
	if err := ratesSvc.LoadFromStore(ctx); err != nil {
		log.Fatal("registry load", zap.Error(err))
	}

	var quoteCache *fare.Store
	if cfg.Fare.QuoteCacheTTLSeconds > 0 {
		redisClient := infra.NewRedis(cfg.Redis.Addr)
		quoteCache = fare.NewStore(redisClient, time.Duration(cfg.Fare.QuoteCacheTTLSeconds)*time.Second)
	}

	fareSvc := fare.NewService(ratesSvc, quoteCache, fare.Options{
		NightStartMin: cfg.Fare.NightStartMin,
		NightEndMin:   cfg.Fare.NightEndMin,
		MinimumFare:   cfg.Fare.MinimumFare,
	}, log)

	var distance httptransport.Distancer
	if cfg.Maps.APIKey != "" {
		svc, err := maps.NewDistanceService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal("maps init", zap.Error(err))
		}
		distance = svc
	}

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Rates:    ratesSvc,
		Fare:     fareSvc,
		Distance: distance,
		Log:      log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("serve", zap.Error(err))
	}
}
