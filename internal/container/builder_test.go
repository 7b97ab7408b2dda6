package container

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klevvr/go-crypto-history/internal/config"
	"github.com/klevvr/go-crypto-history/internal/contracts"
	"github.com/klevvr/go-crypto-history/internal/fetcher"
	"github.com/klevvr/go-crypto-history/internal/metrics"
	"github.com/klevvr/go-crypto-history/internal/models"
)

// scriptedAdapter is a canned exchange for end-to-end builder tests.
type scriptedAdapter struct {
	mu        sync.Mutex
	symbols   []string
	histories map[string]models.RawHistory
	failures  map[string]error
	fetches   map[string]int
	listCalls int
}

func newScriptedAdapter(symbols ...string) *scriptedAdapter {
	return &scriptedAdapter{
		symbols:   symbols,
		histories: make(map[string]models.RawHistory),
		failures:  make(map[string]error),
		fetches:   make(map[string]int),
	}
}

func (a *scriptedAdapter) FetchCandles(ctx context.Context, req contracts.FetchRequest) (models.RawHistory, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetches[req.Symbol]++
	if err, ok := a.failures[req.Symbol]; ok {
		return nil, err
	}
	return a.histories[req.Symbol], nil
}

func (a *scriptedAdapter) ListSymbols(ctx context.Context) (models.TickerPool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listCalls++
	records := make([]models.TickerSymbol, len(a.symbols))
	for i, s := range a.symbols {
		records[i] = models.TickerSymbol{Symbol: s, Status: "TRADING"}
	}
	return models.NewTickerPool(records), nil
}

func (a *scriptedAdapter) HealthCheck(ctx context.Context) error {
	return nil
}

func builderOver(t *testing.T, adapter *scriptedAdapter, cfg *config.Config) (*Builder, *metrics.BuildStats) {
	t.Helper()
	stats := metrics.NewBuildStats()
	f, err := fetcher.New(adapter, cfg, stats, nil)
	require.NoError(t, err)
	return NewBuilder(f, cfg, stats, nil), stats
}

func buildConfig(interval string) *config.Config {
	cfg := config.Default()
	cfg.Request.Interval = interval
	cfg.Request.Limit = 100
	return cfg
}

func TestBuildEndToEnd(t *testing.T) {
	adapter := newScriptedAdapter("ETHBTC")
	adapter.histories["ETHBTC"] = historyOfLength(5)

	builder, _ := builderOver(t, adapter, buildConfig("1h"))
	c, err := builder.Build(context.Background(), []string{models.ColumnOpen, models.ColumnClose}, []string{"ETH"}, []string{"BTC"})
	require.NoError(t, err)

	nb, nr, nf, nt := c.Shape()
	assert.Equal(t, [4]int{1, 1, 3, 5}, [4]int{nb, nr, nf, nt})
	assert.Equal(t, []string{models.ColumnOpen, models.ColumnClose, "weight"}, c.Dimensions().Fields)
	assert.True(t, c.HasSlot("ETH", "BTC"))

	for i := 0; i < 5; i++ {
		open, ok := c.Value("ETH", "BTC", models.ColumnOpen, i)
		require.True(t, ok, "open at index %d", i)
		assert.Equal(t, "1", open)

		weight, ok := c.Value("ETH", "BTC", "weight", i)
		require.True(t, ok, "weight at index %d", i)
		assert.Equal(t, "1h", weight)
	}

	// Unrequested raw fields never reach the container axis.
	_, ok := c.Value("ETH", "BTC", models.ColumnVolume, 0)
	assert.False(t, ok)
}

func TestBuildSkipsUnlistedPairs(t *testing.T) {
	adapter := newScriptedAdapter("ETHBTC", "LTCBTC")
	adapter.histories["ETHBTC"] = historyOfLength(4)
	adapter.histories["LTCBTC"] = historyOfLength(4)

	builder, _ := builderOver(t, adapter, buildConfig("1d"))
	c, err := builder.Build(context.Background(),
		[]string{models.ColumnClose}, []string{"ETH", "LTC", "XRP"}, []string{"BTC"})
	require.NoError(t, err)

	assert.True(t, c.HasSlot("ETH", "BTC"))
	assert.True(t, c.HasSlot("LTC", "BTC"))
	assert.False(t, c.HasSlot("XRP", "BTC"))
	assert.Equal(t, 0, adapter.fetchCount("XRPBTC"))
}

func TestBuildSkipsEmptyHistories(t *testing.T) {
	adapter := newScriptedAdapter("ETHBTC", "XRPBTC")
	adapter.histories["ETHBTC"] = historyOfLength(5)
	adapter.histories["XRPBTC"] = models.RawHistory{}

	builder, stats := builderOver(t, adapter, buildConfig("1h"))
	c, err := builder.Build(context.Background(),
		[]string{models.ColumnOpen}, []string{"ETH", "XRP"}, []string{"BTC"})
	require.NoError(t, err, "an empty history must not abort the build")

	assert.True(t, c.HasSlot("ETH", "BTC"))
	assert.False(t, c.HasSlot("XRP", "BTC"), "empty-history slot stays null")
	assert.Equal(t, int64(1), stats.Get().PairsSkipped)
}

func TestBuildPadsShortHistories(t *testing.T) {
	adapter := newScriptedAdapter("ETHBTC", "LTCBTC")
	adapter.histories["ETHBTC"] = historyOfLength(10)
	adapter.histories["LTCBTC"] = historyOfLength(7)

	builder, _ := builderOver(t, adapter, buildConfig("1h"))
	c, err := builder.Build(context.Background(),
		[]string{models.ColumnOpen}, []string{"ETH", "LTC"}, []string{"BTC"})
	require.NoError(t, err)

	assert.True(t, c.HasSlot("LTC", "BTC"))

	// Real rows carry values, padded trailing rows stay null.
	_, ok := c.Value("LTC", "BTC", models.ColumnOpen, 6)
	assert.True(t, ok)
	for i := 7; i < 10; i++ {
		_, ok := c.Value("LTC", "BTC", models.ColumnOpen, i)
		assert.False(t, ok, "padded index %d", i)
	}
}

func TestBuildRejectsOverlongHistories(t *testing.T) {
	adapter := newScriptedAdapter("ETHBTC", "LTCBTC")
	adapter.histories["ETHBTC"] = historyOfLength(5)
	adapter.histories["LTCBTC"] = historyOfLength(8)

	builder, stats := builderOver(t, adapter, buildConfig("1h"))
	c, err := builder.Build(context.Background(),
		[]string{models.ColumnOpen}, []string{"ETH", "LTC"}, []string{"BTC"})
	require.NoError(t, err, "a mis-shaped history is skipped, not fatal")

	assert.True(t, c.HasSlot("ETH", "BTC"))
	assert.False(t, c.HasSlot("LTC", "BTC"), "overlong history is never truncated into the container")
	assert.Equal(t, int64(1), stats.Get().PairsSkipped)
}

func TestBuildFetchFailureDefaultExcludes(t *testing.T) {
	adapter := newScriptedAdapter("ETHBTC", "LTCBTC")
	adapter.histories["ETHBTC"] = historyOfLength(5)
	adapter.failures["LTCBTC"] = errors.New("503 service unavailable")

	builder, _ := builderOver(t, adapter, buildConfig("1h"))
	c, err := builder.Build(context.Background(),
		[]string{models.ColumnOpen}, []string{"ETH", "LTC"}, []string{"BTC"})
	require.NoError(t, err)

	assert.True(t, c.HasSlot("ETH", "BTC"))
	assert.False(t, c.HasSlot("LTC", "BTC"))
}

func TestBuildFetchFailureStrictAborts(t *testing.T) {
	adapter := newScriptedAdapter("ETHBTC", "LTCBTC")
	adapter.histories["ETHBTC"] = historyOfLength(5)
	adapter.failures["LTCBTC"] = errors.New("503 service unavailable")

	cfg := buildConfig("1h")
	cfg.StrictFetch = true
	builder, _ := builderOver(t, adapter, cfg)

	_, err := builder.Build(context.Background(),
		[]string{models.ColumnOpen}, []string{"ETH", "LTC"}, []string{"BTC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 fetches failed")
}

func TestBuildIsNotMemoized(t *testing.T) {
	adapter := newScriptedAdapter("ETHBTC")
	adapter.histories["ETHBTC"] = historyOfLength(3)

	builder, _ := builderOver(t, adapter, buildConfig("1h"))
	ctx := context.Background()
	fields := []string{models.ColumnOpen}

	_, err := builder.Build(ctx, fields, []string{"ETH"}, []string{"BTC"})
	require.NoError(t, err)
	_, err = builder.Build(ctx, fields, []string{"ETH"}, []string{"BTC"})
	require.NoError(t, err)

	adapter.mu.Lock()
	defer adapter.mu.Unlock()
	assert.Equal(t, 2, adapter.listCalls, "every build re-discovers tickers")
	// One example fetch (cached across builds) plus one pair fetch per build.
	assert.Equal(t, 3, adapter.fetches["ETHBTC"])
}

func TestBuildDoesNotMutateFieldList(t *testing.T) {
	adapter := newScriptedAdapter("ETHBTC")
	adapter.histories["ETHBTC"] = historyOfLength(2)

	builder, _ := builderOver(t, adapter, buildConfig("1h"))
	ctx := context.Background()

	fields := make([]string, 0, 8)
	fields = append(fields, models.ColumnOpen, models.ColumnClose)

	_, err := builder.Build(ctx, fields, []string{"ETH"}, []string{"BTC"})
	require.NoError(t, err)
	c, err := builder.Build(ctx, fields, []string{"ETH"}, []string{"BTC"})
	require.NoError(t, err)

	assert.Equal(t, []string{models.ColumnOpen, models.ColumnClose}, fields)
	assert.Equal(t, []string{models.ColumnOpen, models.ColumnClose, "weight"}, c.Dimensions().Fields)
}

func (a *scriptedAdapter) fetchCount(symbol string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches[symbol]
}
