// Exchange collaborator contracts for the crypto-history core.

package contracts

import (
	"context"
	"fmt"
	"time"

	"github.com/klevvr/go-crypto-history/internal/models"
)

// CandleFetcher retrieves raw OHLCV history from an exchange.
type CandleFetcher interface {
	FetchCandles(ctx context.Context, req FetchRequest) (models.RawHistory, error)
}

// SymbolLister discovers the exchange's tradable ticker symbols.
type SymbolLister interface {
	ListSymbols(ctx context.Context) (models.TickerPool, error)
}

// HealthChecker reports whether the exchange is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ExchangeAdapter combines all exchange capabilities the core depends on.
type ExchangeAdapter interface {
	CandleFetcher
	SymbolLister
	HealthChecker
}

// FetchRequest describes one candle history request. Zero Start means "no
// lower bound" and zero End means "up to now", matching the exchange default.
type FetchRequest struct {
	Symbol   string
	Interval string // human interval string: "1h", "1d", "3d", ...
	Start    time.Time
	End      time.Time
	Limit    int
}

// Validate checks the request before it reaches the wire.
func (r FetchRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if r.Interval == "" {
		return fmt.Errorf("interval is required")
	}
	if r.Limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return fmt.Errorf("start time must be before end time")
	}
	return nil
}
