// Package exchange provides the Binance adapter for the crypto-history core.
//
// The adapter owns everything exchange-specific: interval string validation,
// kline wire-format conversion, request rate limiting, and retry with
// exponential backoff. The core above it only ever sees the contracts
// interfaces and models types.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/klevvr/go-crypto-history/internal/config"
	"github.com/klevvr/go-crypto-history/internal/contracts"
	herrors "github.com/klevvr/go-crypto-history/internal/errors"
	"github.com/klevvr/go-crypto-history/internal/logger"
	"github.com/klevvr/go-crypto-history/internal/models"
)

const (
	testnetBaseURL = "https://testnet.binance.vision"

	// Retry policy for transient HTTP failures.
	maxRetries        = 3
	initialRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 30 * time.Second

	rateLimitBurst = 1
)

// supportedIntervals is the set of interval strings the Binance klines
// endpoint accepts.
var supportedIntervals = map[string]struct{}{
	"1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
	"1h": {}, "2h": {}, "4h": {}, "6h": {}, "8h": {}, "12h": {},
	"1d": {}, "3d": {}, "1w": {}, "1M": {},
}

// ValidateInterval rejects interval strings Binance does not support, e.g.
// "31d". Returns a configuration error so callers fail fast at construction.
func ValidateInterval(interval string) error {
	if _, ok := supportedIntervals[interval]; !ok {
		return herrors.NewConfiguration("interval", "unsupported interval %q", interval)
	}
	return nil
}

// BinanceAdapter implements contracts.ExchangeAdapter on the Binance spot
// REST API.
type BinanceAdapter struct {
	client      *binance.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

var _ contracts.ExchangeAdapter = (*BinanceAdapter)(nil)

// NewBinanceAdapter creates a Binance adapter from the exchange configuration.
func NewBinanceAdapter(cfg config.ExchangeConfig, log *slog.Logger) (*BinanceAdapter, error) {
	client := binance.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.Testnet {
		client.BaseURL = testnetBaseURL
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 10
	}

	return &BinanceAdapter{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), rateLimitBurst),
		logger:      logger.WithComponent(log, "exchange"),
	}, nil
}

// FetchCandles retrieves the kline history for one symbol. Klines that fail
// basic OHLC validation are logged and skipped rather than failing the fetch.
func (b *BinanceAdapter) FetchCandles(ctx context.Context, req contracts.FetchRequest) (models.RawHistory, error) {
	if err := req.Validate(); err != nil {
		return nil, herrors.NewConfiguration("fetch_candles", "invalid request: %v", err)
	}
	if err := ValidateInterval(req.Interval); err != nil {
		return nil, err
	}

	if err := b.rateLimiter.Wait(ctx); err != nil {
		return nil, herrors.NewFetch("fetch_candles", err)
	}

	svc := b.client.NewKlinesService().
		Symbol(req.Symbol).
		Interval(req.Interval).
		Limit(req.Limit)
	if !req.Start.IsZero() {
		svc = svc.StartTime(req.Start.UnixMilli())
	}
	if !req.End.IsZero() {
		svc = svc.EndTime(req.End.UnixMilli())
	}

	var klines []*binance.Kline
	err := b.withRetry(ctx, "klines", func() error {
		var err error
		klines, err = svc.Do(ctx)
		return err
	})
	if err != nil {
		return nil, herrors.NewFetch("fetch_candles", fmt.Errorf("klines request for %s failed: %w", req.Symbol, err))
	}

	history := make(models.RawHistory, 0, len(klines))
	for _, k := range klines {
		kline := convertKline(k)
		if err := kline.Validate(); err != nil {
			b.logger.Warn("skipping invalid kline",
				"symbol", req.Symbol,
				"open_time", kline.OpenTime,
				"error", err)
			continue
		}
		history = append(history, kline)
	}

	b.logger.Debug("fetched candles",
		"symbol", req.Symbol,
		"interval", req.Interval,
		"count", len(history))

	return history, nil
}

// ListSymbols discovers all tradable ticker symbols via the exchange info
// endpoint.
func (b *BinanceAdapter) ListSymbols(ctx context.Context) (models.TickerPool, error) {
	if err := b.rateLimiter.Wait(ctx); err != nil {
		return models.TickerPool{}, herrors.NewFetch("list_symbols", err)
	}

	var info *binance.ExchangeInfo
	err := b.withRetry(ctx, "exchange_info", func() error {
		var err error
		info, err = b.client.NewExchangeInfoService().Do(ctx)
		return err
	})
	if err != nil {
		return models.TickerPool{}, herrors.NewFetch("list_symbols", fmt.Errorf("exchange info request failed: %w", err))
	}

	symbols := make([]models.TickerSymbol, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		symbols = append(symbols, models.TickerSymbol{
			Symbol:     s.Symbol,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
			Status:     s.Status,
		})
	}

	b.logger.Debug("discovered symbols", "count", len(symbols))
	return models.NewTickerPool(symbols), nil
}

// HealthCheck pings the exchange.
func (b *BinanceAdapter) HealthCheck(ctx context.Context) error {
	if err := b.client.NewPingService().Do(ctx); err != nil {
		return herrors.NewFetch("health_check", fmt.Errorf("binance ping failed: %w", err))
	}
	return nil
}

// withRetry runs a request with exponential backoff and jitter.
func (b *BinanceAdapter) withRetry(ctx context.Context, operation string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialRetryDelay
	policy.MaxInterval = maxRetryDelay

	return backoff.RetryNotify(
		fn,
		backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx),
		func(err error, delay time.Duration) {
			b.logger.Warn("request failed, retrying",
				"operation", operation,
				"error", err,
				"retry_delay", delay)
		},
	)
}

// convertKline maps a go-binance kline into the internal model.
func convertKline(k *binance.Kline) models.Kline {
	return models.Kline{
		OpenTime:            time.UnixMilli(k.OpenTime),
		Open:                k.Open,
		High:                k.High,
		Low:                 k.Low,
		Close:               k.Close,
		Volume:              k.Volume,
		CloseTime:           time.UnixMilli(k.CloseTime),
		QuoteVolume:         k.QuoteAssetVolume,
		Trades:              k.TradeNum,
		TakerBuyBaseVolume:  k.TakerBuyBaseAssetVolume,
		TakerBuyQuoteVolume: k.TakerBuyQuoteAssetVolume,
	}
}
