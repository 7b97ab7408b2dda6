// Package fetcher retrieves raw per-ticker candle histories from the exchange
// collaborator: single fetches, the cached example history that establishes
// the expected time-index depth, ticker discovery, and the concurrent bulk
// fetch over a set of (base, reference) pairs.
package fetcher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/klevvr/go-crypto-history/internal/config"
	"github.com/klevvr/go-crypto-history/internal/contracts"
	herrors "github.com/klevvr/go-crypto-history/internal/errors"
	"github.com/klevvr/go-crypto-history/internal/logger"
	"github.com/klevvr/go-crypto-history/internal/metrics"
	"github.com/klevvr/go-crypto-history/internal/models"
)

// Fetcher issues candle history requests against one exchange adapter with a
// fixed interval, time range, and limit.
type Fetcher struct {
	adapter       contracts.ExchangeAdapter
	request       config.RequestConfig
	maxConcurrent int
	stats         *metrics.BuildStats
	logger        *slog.Logger

	// example caching. The mutex is held across the example fetch so
	// concurrent callers share a single in-flight request; only a successful
	// fetch is cached.
	exampleMu  sync.Mutex
	example    models.RawHistory
	exampleSet bool
}

// New creates a fetcher, failing fast with a configuration error when the
// limit exceeds the exchange maximum or the interval string is not supported.
func New(adapter contracts.ExchangeAdapter, cfg *config.Config, stats *metrics.BuildStats, log *slog.Logger) (*Fetcher, error) {
	if cfg.Request.Limit <= 0 || cfg.Request.Limit > config.MaxFetchLimit {
		return nil, herrors.NewConfiguration("fetcher",
			"limit must be in 1..%d, got %d", config.MaxFetchLimit, cfg.Request.Limit)
	}
	if stats == nil {
		stats = metrics.NewBuildStats()
	}

	return &Fetcher{
		adapter:       adapter,
		request:       cfg.Request,
		maxConcurrent: cfg.Fetcher.MaxConcurrent,
		stats:         stats,
		logger:        logger.WithComponent(log, "fetcher"),
	}, nil
}

// FetchOne fetches one ticker's raw candlestick sequence for the configured
// interval, time range, and limit.
func (f *Fetcher) FetchOne(ctx context.Context, symbol string) (models.RawHistory, error) {
	start, err := f.request.StartTime()
	if err != nil {
		return nil, err
	}
	end, err := f.request.EndTime()
	if err != nil {
		return nil, err
	}

	f.stats.RecordFetchAttempt()
	history, err := f.adapter.FetchCandles(ctx, contracts.FetchRequest{
		Symbol:   symbol,
		Interval: f.request.Interval,
		Start:    start,
		End:      end,
		Limit:    f.request.Limit,
	})
	if err != nil {
		f.stats.RecordFetchFailure()
		return nil, err
	}
	f.stats.RecordFetchSuccess()
	return history, nil
}

// ExampleHistory returns the cached history of the configured example symbol,
// fetching it on first use. The example exists solely to learn the expected
// row count; repeated calls return the cached value. A failed fetch is
// propagated and nothing is cached, so a later call retries.
func (f *Fetcher) ExampleHistory(ctx context.Context) (models.RawHistory, error) {
	f.exampleMu.Lock()
	defer f.exampleMu.Unlock()

	if f.exampleSet {
		return f.example, nil
	}

	history, err := f.FetchOne(ctx, f.request.ExampleSymbol)
	if err != nil {
		return nil, err
	}

	f.example = history
	f.exampleSet = true
	f.logger.Debug("cached example history",
		"symbol", f.request.ExampleSymbol,
		"rows", len(history))
	return f.example, nil
}

// DiscoverTickers returns the exchange's full symbol pool.
func (f *Fetcher) DiscoverTickers(ctx context.Context) (models.TickerPool, error) {
	return f.adapter.ListSymbols(ctx)
}

// FetchAll fetches every pair's history concurrently and waits for the full
// fan-out to finish. The result map holds only pairs whose fetch succeeded
// (empty histories included); per-pair failures come back in the error map
// for the caller to treat as skip or abort.
func (f *Fetcher) FetchAll(ctx context.Context, pairs []models.Pair) (map[models.Pair]models.RawHistory, map[models.Pair]error) {
	results := make(map[models.Pair]models.RawHistory, len(pairs))
	failures := make(map[models.Pair]error)

	sem := newSemaphore(f.maxConcurrent)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, pair := range pairs {
		wg.Add(1)
		go func(p models.Pair) {
			defer wg.Done()

			sem.acquire()
			defer sem.release()

			history, err := f.FetchOne(ctx, p.Symbol())

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[p] = herrors.NewFetch("fetch_all", err)
				return
			}
			results[p] = history
		}(pair)
	}

	wg.Wait()

	f.logger.Debug("bulk fetch finished",
		"pairs", len(pairs),
		"succeeded", len(results),
		"failed", len(failures))

	return results, failures
}

// semaphore bounds the fetch fan-out. A zero limit means unbounded.
type semaphore chan struct{}

func newSemaphore(limit int) semaphore {
	if limit <= 0 {
		return nil
	}
	return make(semaphore, limit)
}

func (s semaphore) acquire() {
	if s != nil {
		s <- struct{}{}
	}
}

func (s semaphore) release() {
	if s != nil {
		<-s
	}
}
