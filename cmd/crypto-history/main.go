// crypto-history fetches OHLCV candlestick history for many trading-pair
// combinations from Binance and assembles the results into a 4-dimensional
// labeled container keyed by base asset, reference asset, field, and time
// index.
//
// Usage:
//
//	crypto-history -base ETH,LTC -ref BTC -fields open,close,volume -interval 1d
//	crypto-history -config history.json -base ETH -ref BTC,USDT -interval 1h -limit 500
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/klevvr/go-crypto-history/internal/config"
	"github.com/klevvr/go-crypto-history/internal/container"
	"github.com/klevvr/go-crypto-history/internal/exchange"
	"github.com/klevvr/go-crypto-history/internal/fetcher"
	"github.com/klevvr/go-crypto-history/internal/logger"
	"github.com/klevvr/go-crypto-history/internal/metrics"
)

// Exit codes following standard conventions.
const (
	ExitSuccess     = 0
	ExitUsageError  = 1
	ExitConfigError = 2
	ExitBuildError  = 3
	ExitInterrupt   = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "path to JSON config file")
		baseList   = flag.String("base", "", "comma-separated base assets (required)")
		refList    = flag.String("ref", "", "comma-separated reference assets (required)")
		fieldList  = flag.String("fields", "open,high,low,close,volume", "comma-separated OHLCV fields")
		interval   = flag.String("interval", "", "candle interval, e.g. 1h, 1d")
		start      = flag.String("start", "", "history start (RFC3339 or YYYY-MM-DD)")
		end        = flag.String("end", "", "history end (RFC3339 or YYYY-MM-DD)")
		limit      = flag.Int("limit", 0, "maximum klines per pair (1..1000)")
		strict     = flag.Bool("strict", false, "abort the build when any pair's fetch fails")
	)
	flag.Parse()

	bases := splitList(*baseList)
	refs := splitList(*refList)
	fields := splitList(*fieldList)
	if len(bases) == 0 || len(refs) == 0 {
		fmt.Fprintln(os.Stderr, "error: -base and -ref are required")
		flag.Usage()
		return ExitUsageError
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitConfigError
	}

	// Flags override file and environment configuration.
	if *interval != "" {
		cfg.Request.Interval = *interval
	}
	if *start != "" {
		cfg.Request.Start = *start
	}
	if *end != "" {
		cfg.Request.End = *end
	}
	if *limit != 0 {
		cfg.Request.Limit = *limit
	}
	if *strict {
		cfg.StrictFetch = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitConfigError
	}
	if err := exchange.ValidateInterval(cfg.Request.Interval); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitConfigError
	}

	log, logCloser, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitConfigError
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter, err := exchange.NewBinanceAdapter(cfg.Exchange, log)
	if err != nil {
		log.Error("failed to create exchange adapter", "error", err)
		return ExitConfigError
	}

	stats := metrics.NewBuildStats()
	f, err := fetcher.New(adapter, cfg, stats, log)
	if err != nil {
		log.Error("failed to create fetcher", "error", err)
		return ExitConfigError
	}

	builder := container.NewBuilder(f, cfg, stats, log)
	result, err := builder.Build(ctx, fields, bases, refs)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("build interrupted")
			return ExitInterrupt
		}
		log.Error("build failed", "error", err)
		return ExitBuildError
	}

	printSummary(result, stats)
	return ExitSuccess
}

func printSummary(c *container.Container, stats *metrics.BuildStats) {
	nb, nr, nf, nt := c.Shape()
	dims := c.Dimensions()
	snap := stats.Get()

	fmt.Printf("container shape: %d base × %d reference × %d fields × %d time indices\n", nb, nr, nf, nt)
	fmt.Printf("fields: %s\n", strings.Join(dims.Fields, ", "))
	fmt.Printf("populated slots: %d\n", c.PopulatedSlots())
	for _, base := range dims.BaseAssets {
		for _, ref := range dims.ReferenceAssets {
			status := "null"
			if c.HasSlot(base, ref) {
				status = "populated"
			}
			fmt.Printf("  %s/%s: %s\n", base, ref, status)
		}
	}
	fmt.Printf("fetches: %d attempted, %d succeeded, %d failed, %d pairs skipped\n",
		snap.FetchesAttempted, snap.FetchesSucceeded, snap.FetchesFailed, snap.PairsSkipped)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
