package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ohlcvd/config"
	"ohlcvd/internal/collector"
	"ohlcvd/internal/httpapi"
	"ohlcvd/logger"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// run collector
	svc, err := collector.StartCollector(cfg, log)
	if err != nil {
		log.Fatal("collector failed", zap.Error(err))
	}

	// query API
	var api *httpapi.Server
	if cfg.HTTP.Addr != "" {
		api = httpapi.NewServer(cfg.HTTP.Addr, svc.Registry(), log)
		go func() {
			if err := api.Start(); err != nil {
				log.Fatal("query API failed", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if api != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.Shutdown(ctx); err != nil {
			log.Warn("query API shutdown", zap.Error(err))
		}
	}
	svc.Stop()
}
