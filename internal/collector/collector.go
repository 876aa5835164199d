package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ohlcvd/config"
	"ohlcvd/internal/ohlcv"
	"ohlcvd/internal/ohlcv/memstore"
	"ohlcvd/internal/stream"
	"ohlcvd/pkg/bybit"
	"ohlcvd/pkg/storage/postgres"
	"ohlcvd/pkg/storage/redisstore"

	"go.uber.org/zap"
)

// Service supervises one pipeline per symbol: historical backfill of the 1m
// series, seeding of the derived 1h series, then live WebSocket ingestion.
// Reads go through the Registry only.
type Service struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *Registry

	rest *bybit.RESTClient
	ws   *bybit.WSClient
	pg   *postgres.PostgresClient
	rdb  *redisstore.Client

	mu        sync.Mutex
	pipelines map[string]*pipeline
	wg        sync.WaitGroup
}

// StartCollector initializes the data pipelines for the configured symbols.
// Backfill failures degrade to partial series; only infrastructure failures
// (WebSocket connect, configured-but-unreachable stores) abort startup.
func StartCollector(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	s := &Service{
		cfg:       cfg,
		logger:    logger,
		registry:  NewRegistry(),
		rest:      bybit.NewRESTClient(cfg.Bybit.REST.BaseURL, cfg.Bybit.REST.Category, cfg.Bybit.REST.Timeout),
		pipelines: make(map[string]*pipeline),
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.New(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.rdb = rdb
	}
	if cfg.Postgres.Enabled() {
		pg, err := postgres.InitializeAndMigrateBarRecord(cfg.Postgres, true)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		s.pg = pg
	}

	symbols := cfg.Series.Symbols
	if len(symbols) == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Bybit.REST.Timeout)
		discovered, err := s.rest.GetUSDTSymbols(ctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("symbol discovery failed: %w", err)
		}
		if len(discovered) > cfg.Series.MaxSymbols {
			discovered = discovered[:cfg.Series.MaxSymbols]
		}
		symbols = discovered
		logger.Info("discovered symbols", zap.Int("count", len(symbols)))
	}

	s.ws = bybit.NewWSClient(cfg.Bybit.WS.URL, logger)
	s.ws.SetMessageHandler(stream.MakeMessageHandler(logger, s))
	if err := s.ws.Connect(); err != nil {
		return nil, err
	}
	go s.ws.Listen()

	// Backfill runs concurrently across symbols, sequentially within each.
	sem := make(chan struct{}, cfg.Series.BackfillWorkers)
	for _, symbol := range symbols {
		symbol := symbol
		sem <- struct{}{}
		s.wg.Add(1)
		go func() {
			defer func() { <-sem; s.wg.Done() }()
			if err := s.startPipeline(symbol); err != nil {
				logger.Error("failed to start pipeline", zap.String("symbol", symbol), zap.Error(err))
			}
		}()
	}

	return s, nil
}

// Registry exposes the read facade.
func (s *Service) Registry() *Registry {
	return s.registry
}

// startPipeline backfills one symbol's 1m series, seeds the 1h series, and
// then attaches the live subscription.
func (s *Service) startPipeline(symbol string) error {
	fine := s.newStore(symbol, ohlcv.Res1m)
	coarse := s.newStore(symbol, ohlcv.Res1h)

	resampler, err := ohlcv.NewResampler(fine, coarse, ohlcv.Res1m, ohlcv.Res1h, s.cfg.Series.MaxLen)
	if err != nil {
		return err
	}

	backfiller := &ohlcv.Backfiller{
		Source:   s.rest,
		PageSize: s.cfg.Series.BackfillPageSize,
		MaxPages: s.cfg.Series.BackfillPages,
		Logger:   s.logger,
	}
	loaded, err := backfiller.Run(context.Background(), symbol, ohlcv.Res1m, fine, s.cfg.Series.MaxLen)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	if err := resampler.Seed(context.Background()); err != nil {
		return fmt.Errorf("seed resample: %w", err)
	}
	s.logger.Info("backfill complete", zap.String("symbol", symbol), zap.Int("bars", loaded))

	ingester := ohlcv.NewIngester(fine, []*ohlcv.Resampler{resampler}, s.cfg.Series.MaxLen, s.logger)
	ingester.OnBarClosed = s.archiveBar(symbol)
	ingester.OnUpdate = s.recordPrice(symbol)

	p := &pipeline{symbol: symbol, ingester: ingester, logger: s.logger}

	s.registry.Register(symbol, ohlcv.Res1m, fine)
	s.registry.Register(symbol, ohlcv.Res1h, coarse)
	s.mu.Lock()
	s.pipelines[symbol] = p
	s.mu.Unlock()

	topic, err := bybit.KlineTopic(ohlcv.Res1m, symbol)
	if err != nil {
		return err
	}
	sub, err := s.ws.Subscribe(topic)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	p.setSubscription(sub)
	return nil
}

// newStore picks the configured backing store for a series.
func (s *Service) newStore(symbol string, res ohlcv.Resolution) ohlcv.SeriesStore {
	if s.rdb != nil {
		return s.rdb.Series(symbol, res)
	}
	return memstore.New()
}

// Dispatch routes a decoded live event to its symbol's pipeline. Events for
// unknown symbols (or arriving before backfill finished) are dropped; the
// snapshot already covers them.
func (s *Service) Dispatch(symbol string, ev ohlcv.Event) {
	s.mu.Lock()
	p, ok := s.pipelines[symbol]
	s.mu.Unlock()
	if !ok {
		return
	}
	p.handle(context.Background(), ev)
}

// archiveBar returns the closed-bar hook writing to the Postgres archive,
// or nil when no archive is configured.
func (s *Service) archiveBar(symbol string) func(ohlcv.Bar) {
	if s.pg == nil {
		return nil
	}
	return func(bar ohlcv.Bar) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.pg.InsertBar(ctx, postgres.ToBarRecord(symbol, ohlcv.Res1m, bar)); err != nil {
			s.logger.Warn("failed to archive bar", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

// recordPrice returns the last-price hook, or nil without Redis.
func (s *Service) recordPrice(symbol string) func(float64) {
	if s.rdb == nil {
		return nil
	}
	return func(price float64) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.rdb.SetLastPrice(ctx, symbol, price); err != nil {
			s.logger.Warn("failed to record price", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

// Stop cancels every live subscription and releases clients. Mutation is
// always a complete append or replace, so teardown cannot leave a series in
// a partial state.
func (s *Service) Stop() {
	s.wg.Wait() // let in-flight pipeline startups settle

	s.mu.Lock()
	for _, p := range s.pipelines {
		p.stop()
	}
	s.mu.Unlock()

	if s.ws != nil {
		_ = s.ws.Close()
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.pg != nil {
		_ = s.pg.Close()
	}
}
