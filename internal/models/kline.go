// Package models provides the data structures shared across the crypto-history
// pipeline: exchange-native klines, raw per-ticker histories, the discovered
// ticker pool, and (base, reference) asset pairs.
package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the raw kline table, in wire order. Normalization drops the
// ones the caller did not request, so every exchange-native field needs a
// stable name here.
const (
	ColumnOpenTime            = "open_ts"
	ColumnOpen                = "open"
	ColumnHigh                = "high"
	ColumnLow                 = "low"
	ColumnClose               = "close"
	ColumnVolume              = "volume"
	ColumnCloseTime           = "close_ts"
	ColumnQuoteVolume         = "quote_volume"
	ColumnTrades              = "trades"
	ColumnTakerBuyBaseVolume  = "taker_buy_base_volume"
	ColumnTakerBuyQuoteVolume = "taker_buy_quote_volume"
)

// RawColumns returns the ordered column names a kline expands into.
func RawColumns() []string {
	return []string{
		ColumnOpenTime,
		ColumnOpen,
		ColumnHigh,
		ColumnLow,
		ColumnClose,
		ColumnVolume,
		ColumnCloseTime,
		ColumnQuoteVolume,
		ColumnTrades,
		ColumnTakerBuyBaseVolume,
		ColumnTakerBuyQuoteVolume,
	}
}

// Kline represents one exchange-native OHLCV time bucket. Price and volume
// values are carried as decimal strings and parsed on demand to avoid float
// precision loss.
type Kline struct {
	OpenTime            time.Time `json:"open_time"`
	Open                string    `json:"open"`
	High                string    `json:"high"`
	Low                 string    `json:"low"`
	Close               string    `json:"close"`
	Volume              string    `json:"volume"`
	CloseTime           time.Time `json:"close_time"`
	QuoteVolume         string    `json:"quote_volume"`
	Trades              int64     `json:"trades"`
	TakerBuyBaseVolume  string    `json:"taker_buy_base_volume"`
	TakerBuyQuoteVolume string    `json:"taker_buy_quote_volume"`
}

// RawHistory is the fetched candlestick sequence for one ticker, one record
// per time bucket, ordered oldest first as the exchange returns it.
type RawHistory []Kline

// ValidationError reports a kline field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %s: %s", e.Field, e.Message)
}

// Validate checks that the kline's numeric fields parse as decimals and that
// the OHLC relationships hold (high >= max(open, close), low <= min(open,
// close), volume >= 0).
func (k *Kline) Validate() error {
	if k.OpenTime.IsZero() {
		return &ValidationError{Field: ColumnOpenTime, Message: "open time cannot be zero"}
	}

	open, err := decimal.NewFromString(k.Open)
	if err != nil {
		return &ValidationError{Field: ColumnOpen, Message: fmt.Sprintf("invalid open price: %v", err)}
	}
	high, err := decimal.NewFromString(k.High)
	if err != nil {
		return &ValidationError{Field: ColumnHigh, Message: fmt.Sprintf("invalid high price: %v", err)}
	}
	low, err := decimal.NewFromString(k.Low)
	if err != nil {
		return &ValidationError{Field: ColumnLow, Message: fmt.Sprintf("invalid low price: %v", err)}
	}
	closePrice, err := decimal.NewFromString(k.Close)
	if err != nil {
		return &ValidationError{Field: ColumnClose, Message: fmt.Sprintf("invalid close price: %v", err)}
	}
	volume, err := decimal.NewFromString(k.Volume)
	if err != nil {
		return &ValidationError{Field: ColumnVolume, Message: fmt.Sprintf("invalid volume: %v", err)}
	}

	if open.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: ColumnOpen, Message: "open price must be greater than 0"}
	}
	if high.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: ColumnHigh, Message: "high price must be greater than 0"}
	}
	if low.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: ColumnLow, Message: "low price must be greater than 0"}
	}
	if closePrice.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: ColumnClose, Message: "close price must be greater than 0"}
	}
	if volume.LessThan(decimal.Zero) {
		return &ValidationError{Field: ColumnVolume, Message: "volume must be greater than or equal to 0"}
	}

	if high.LessThan(decimal.Max(open, closePrice)) {
		return &ValidationError{
			Field:   ColumnHigh,
			Message: fmt.Sprintf("high price (%s) must be >= max(open, close)", k.High),
		}
	}
	if low.GreaterThan(decimal.Min(open, closePrice)) {
		return &ValidationError{
			Field:   ColumnLow,
			Message: fmt.Sprintf("low price (%s) must be <= min(open, close)", k.Low),
		}
	}

	return nil
}

// CellValues expands the kline into one table row following RawColumns order.
func (k *Kline) CellValues() []string {
	return []string{
		strconv.FormatInt(k.OpenTime.UnixMilli(), 10),
		k.Open,
		k.High,
		k.Low,
		k.Close,
		k.Volume,
		strconv.FormatInt(k.CloseTime.UnixMilli(), 10),
		k.QuoteVolume,
		strconv.FormatInt(k.Trades, 10),
		k.TakerBuyBaseVolume,
		k.TakerBuyQuoteVolume,
	}
}

// String implements fmt.Stringer for log output.
func (k *Kline) String() string {
	return fmt.Sprintf("Kline{T: %s, O: %s, H: %s, L: %s, C: %s, V: %s}",
		k.OpenTime.Format(time.RFC3339), k.Open, k.High, k.Low, k.Close, k.Volume)
}
