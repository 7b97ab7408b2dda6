// Package dimensions derives the coordinate axes of the history container:
// base assets, reference assets, OHLCV fields plus the weight column, and the
// time-index depth learned from the example history.
package dimensions

import (
	"context"

	"github.com/klevvr/go-crypto-history/internal/models"
)

// WeightField is the provenance column appended to every normalized table,
// recording the interval the history was fetched at.
const WeightField = "weight"

// ExampleSource supplies the example history whose length fixes the expected
// time-index depth.
type ExampleSource interface {
	ExampleHistory(ctx context.Context) (models.RawHistory, error)
}

// Dimensions holds the four coordinate axes of the container.
type Dimensions struct {
	BaseAssets      []string
	ReferenceAssets []string
	Fields          []string
	TimeIndex       []int
}

// Depth returns the expected number of rows per table.
func (d *Dimensions) Depth() int {
	return len(d.TimeIndex)
}

// Resolver builds Dimensions from caller-supplied asset and field lists.
type Resolver struct {
	source ExampleSource
}

// NewResolver creates a resolver over the given example source.
func NewResolver(source ExampleSource) *Resolver {
	return &Resolver{source: source}
}

// IndexDepth returns [0, 1, ..., n-1] where n is the number of records in the
// example history. A failed example fetch is propagated, not retried here.
func (r *Resolver) IndexDepth(ctx context.Context) ([]int, error) {
	example, err := r.source.ExampleHistory(ctx)
	if err != nil {
		return nil, err
	}
	index := make([]int, len(example))
	for i := range index {
		index[i] = i
	}
	return index, nil
}

// Resolve assembles the four axes. The weight field is appended to a copy of
// the caller's field list; the input slice is never mutated, so repeated
// calls with the same slice cannot accumulate weight entries.
func (r *Resolver) Resolve(ctx context.Context, fields, baseAssets, referenceAssets []string) (*Dimensions, error) {
	index, err := r.IndexDepth(ctx)
	if err != nil {
		return nil, err
	}

	withWeight := make([]string, 0, len(fields)+1)
	withWeight = append(withWeight, fields...)
	withWeight = append(withWeight, WeightField)

	return &Dimensions{
		BaseAssets:      baseAssets,
		ReferenceAssets: referenceAssets,
		Fields:          withWeight,
		TimeIndex:       index,
	}, nil
}
