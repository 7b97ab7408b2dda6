package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/klevvr/go-crypto-history/internal/config"
	"github.com/klevvr/go-crypto-history/internal/dimensions"
	herrors "github.com/klevvr/go-crypto-history/internal/errors"
	"github.com/klevvr/go-crypto-history/internal/fetcher"
	"github.com/klevvr/go-crypto-history/internal/logger"
	"github.com/klevvr/go-crypto-history/internal/metrics"
	"github.com/klevvr/go-crypto-history/internal/models"
	"github.com/klevvr/go-crypto-history/internal/pairs"
)

// Builder orchestrates one container build: pair selection, the bulk fetch,
// per-pair normalization, and insertion.
type Builder struct {
	fetcher     *fetcher.Fetcher
	resolver    *dimensions.Resolver
	interval    string
	strictFetch bool
	stats       *metrics.BuildStats
	logger      *slog.Logger
}

// NewBuilder creates a builder over a fetcher. The weight column of every
// normalized table takes its value from the configured interval.
func NewBuilder(f *fetcher.Fetcher, cfg *config.Config, stats *metrics.BuildStats, log *slog.Logger) *Builder {
	if stats == nil {
		stats = metrics.NewBuildStats()
	}
	return &Builder{
		fetcher:     f,
		resolver:    dimensions.NewResolver(f),
		interval:    cfg.Request.Interval,
		strictFetch: cfg.StrictFetch,
		stats:       stats,
		logger:      logger.WithComponent(log, "builder"),
	}
}

// Build fetches every valid (base, reference) pair's history and assembles
// the populated container. Every call re-fetches and rebuilds from scratch;
// results are not memoized across calls.
//
// Pairs whose history is empty or mis-shaped are skipped and their slot stays
// unset. Failed fetches are skipped the same way unless strict fetch mode is
// configured, in which case the build aborts with the joined fetch errors.
func (b *Builder) Build(ctx context.Context, fields, baseAssets, referenceAssets []string) (*Container, error) {
	buildID := uuid.NewString()
	started := time.Now()
	log := b.logger.With("build_id", buildID)

	log.Info("starting container build",
		"fields", fields,
		"base_assets", baseAssets,
		"reference_assets", referenceAssets,
		"interval", b.interval)

	dims, err := b.resolver.Resolve(ctx, fields, baseAssets, referenceAssets)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dimensions: %w", err)
	}

	c := NewContainer(dims)

	pool, err := b.fetcher.DiscoverTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover tickers: %w", err)
	}

	selected := pairs.SelectValid(baseAssets, referenceAssets, pool)
	log.Debug("selected tradable pairs",
		"requested", len(baseAssets)*len(referenceAssets),
		"selected", len(selected))

	histories, failures := b.fetcher.FetchAll(ctx, selected)

	if len(failures) > 0 {
		if b.strictFetch {
			errs := make([]error, 0, len(failures))
			for pair, ferr := range failures {
				errs = append(errs, fmt.Errorf("%s: %w", pair, ferr))
			}
			return nil, fmt.Errorf("build aborted, %d of %d fetches failed: %w",
				len(failures), len(selected), errors.Join(errs...))
		}
		for pair, ferr := range failures {
			b.stats.RecordPairSkipped()
			log.Warn("excluding pair after failed fetch", "pair", pair.String(), "error", ferr)
		}
	}

	// Insertion runs sequentially on this goroutine after the fan-in, so
	// slots are written without contention.
	for pair, history := range histories {
		table, err := b.normalize(history, pair.Symbol(), dims)
		if err != nil {
			if herrors.IsRecoverable(err) {
				b.stats.RecordPairSkipped()
				log.Debug("skipping pair", "pair", pair.String(), "reason", err)
				continue
			}
			return nil, fmt.Errorf("failed to normalize %s: %w", pair.Symbol(), err)
		}

		if err := c.SetSlot(pair.Base, pair.Reference, table); err != nil {
			return nil, fmt.Errorf("failed to insert %s: %w", pair.Symbol(), err)
		}
		b.stats.RecordSlotPopulated()
		log.Debug("inserted history", "pair", pair.String())
	}

	duration := time.Since(started)
	b.stats.RecordBuild(duration)

	log.Info("container build finished",
		"populated_slots", c.PopulatedSlots(),
		"selected_pairs", len(selected),
		"duration", duration)

	return c, nil
}

// normalize turns a raw history into a fixed-shape table: reject empty
// histories, pad short ones with trailing null rows up to the index depth,
// reject ones longer than the depth, drop columns outside the requested field
// set, and append the weight column.
//
// Padding assumes incompleteness only ever shows up as missing trailing rows;
// missing leading or interior rows are not detected here.
func (b *Builder) normalize(history models.RawHistory, symbol string, dims *dimensions.Dimensions) (*Table, error) {
	if len(history) == 0 {
		return nil, herrors.NewEmptyHistory(symbol)
	}

	table := FromHistory(history)

	depth := dims.Depth()
	if table.Rows() > depth {
		return nil, herrors.NewShapeMismatch(symbol, table.Rows(), depth)
	}
	table.PadRows(depth)

	// dims.Fields carries the weight column at the end; it is not part of the
	// drop check because no raw column carries that name — it is appended
	// fresh below.
	table.DropColumnsExcept(dims.Fields)
	table.AppendConstantColumn(dimensions.WeightField, b.interval)

	return table, nil
}
