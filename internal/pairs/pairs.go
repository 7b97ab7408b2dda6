// Package pairs selects the (base, reference) combinations that are actually
// tradable on the exchange.
package pairs

import (
	"github.com/klevvr/go-crypto-history/internal/models"
)

// SelectValid returns every (base, reference) combination from the cartesian
// product of the two asset lists whose concatenated symbol exists in the
// ticker pool. The result follows product order but callers consume it as a
// set.
func SelectValid(baseAssets, referenceAssets []string, pool models.TickerPool) []models.Pair {
	var selected []models.Pair
	for _, base := range baseAssets {
		for _, reference := range referenceAssets {
			pair := models.Pair{Base: base, Reference: reference}
			if pool.HasSymbol(pair.Symbol()) {
				selected = append(selected, pair)
			}
		}
	}
	return selected
}
