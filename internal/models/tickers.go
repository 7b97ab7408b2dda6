package models

// TickerSymbol is one tradable pair as reported by the exchange's symbol-list
// endpoint.
type TickerSymbol struct {
	Symbol     string `json:"symbol"`
	BaseAsset  string `json:"base_asset"`
	QuoteAsset string `json:"quote_asset"`
	Status     string `json:"status"`
}

// TickerPool is the ordered collection of symbols produced by one discovery
// call. It is immutable once fetched.
type TickerPool struct {
	symbols []TickerSymbol
	index   map[string]int
}

// NewTickerPool builds a pool with a symbol index for O(1) membership checks.
func NewTickerPool(symbols []TickerSymbol) TickerPool {
	index := make(map[string]int, len(symbols))
	for i, s := range symbols {
		index[s.Symbol] = i
	}
	return TickerPool{symbols: symbols, index: index}
}

// Symbols returns the pool contents in discovery order.
func (p TickerPool) Symbols() []TickerSymbol {
	return p.symbols
}

// Len returns the number of symbols in the pool.
func (p TickerPool) Len() int {
	return len(p.symbols)
}

// HasSymbol reports whether the exchange lists the given symbol.
func (p TickerPool) HasSymbol(symbol string) bool {
	_, ok := p.index[symbol]
	return ok
}

// Lookup returns the symbol record for a ticker symbol, if listed.
func (p TickerPool) Lookup(symbol string) (TickerSymbol, bool) {
	i, ok := p.index[symbol]
	if !ok {
		return TickerSymbol{}, false
	}
	return p.symbols[i], true
}

// Pair identifies a (base, reference) asset combination.
type Pair struct {
	Base      string
	Reference string
}

// Symbol returns the exchange ticker symbol for the pair, the concatenation
// of base and reference assets ("ETH" + "BTC" = "ETHBTC").
func (p Pair) Symbol() string {
	return p.Base + p.Reference
}

// String implements fmt.Stringer.
func (p Pair) String() string {
	return p.Base + "/" + p.Reference
}
