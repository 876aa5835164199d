package collector

import (
	"context"
	"sync"

	"ohlcvd/internal/ohlcv"
	"ohlcvd/pkg/bybit"

	"go.uber.org/zap"
)

// pipeline owns the series of one symbol: the 1m store fed by the live feed
// and the 1h store derived from it. All mutation flows through handle, which
// serializes events so each store keeps a single logical writer. A store
// invariant failure poisons only this pipeline; other symbols keep running.
type pipeline struct {
	symbol   string
	ingester *ohlcv.Ingester
	logger   *zap.Logger

	mu     sync.Mutex
	sub    *bybit.Subscription
	failed bool
}

// handle applies one live event. On a structural error the pipeline cancels
// its own subscription and stops accepting events: corrupted series must not
// keep ingesting.
func (p *pipeline) handle(ctx context.Context, ev ohlcv.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failed {
		return
	}
	if err := p.ingester.Ingest(ctx, ev); err != nil {
		p.failed = true
		p.logger.Error("pipeline failed, cancelling subscription",
			zap.String("symbol", p.symbol), zap.Error(err))
		if p.sub != nil {
			if cerr := p.sub.Cancel(); cerr != nil {
				p.logger.Warn("unsubscribe failed", zap.String("symbol", p.symbol), zap.Error(cerr))
			}
		}
	}
}

// setSubscription attaches the live feed handle once backfill has finished.
func (p *pipeline) setSubscription(sub *bybit.Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sub = sub
}

// stop cancels the live subscription. Idempotent.
func (p *pipeline) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub != nil {
		_ = p.sub.Cancel()
	}
}
