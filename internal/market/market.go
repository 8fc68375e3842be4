// Package market provides market data enrichment for the controller editor.
package market

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"board-tracker/internal/models"
)

// Board derivation constants.
var (
	lowFactor   = decimal.RequireFromString("0.99")
	hoursPerDay = decimal.NewFromInt(24)
)

// DeriveBoard computes the monitoring window from a live quote.
// The book side is kept.
func DeriveBoard(b models.Board, t models.Ticker) models.Board {
	b.Hight = t.BestAsk
	b.Low = decimal.NewFromFloat(t.BestBid).Mul(lowFactor).InexactFloat64()
	b.Size = decimal.NewFromFloat(t.Volume24h).Div(hoursPerDay).InexactFloat64()
	return b
}

// TickSize returns the price tick of the selected instrument, or 0.
func TickSize(selected *models.Instrument) float64 {
	if selected == nil {
		return 0
	}
	return selected.PriceTick
}

// Catalog is the tradable instrument set of the selected exchange.
type Catalog struct {
	mu          sync.RWMutex
	instruments []models.Instrument
	bySymbol    map[string]int
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{bySymbol: make(map[string]int)}
}

// Replace swaps the whole instrument set.
func (c *Catalog) Replace(instruments []models.Instrument) {
	next := make([]models.Instrument, len(instruments))
	copy(next, instruments)

	index := make(map[string]int, len(next))
	for i, inst := range next {
		index[inst.Symbol] = i
	}

	c.mu.Lock()
	c.instruments = next
	c.bySymbol = index
	c.mu.Unlock()
}

// Find looks up an instrument by symbol.
func (c *Catalog) Find(symbol string) (models.Instrument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.bySymbol[symbol]
	if !ok {
		return models.Instrument{}, false
	}
	return c.instruments[i], true
}

// List returns a copy of the instrument set.
func (c *Catalog) List() []models.Instrument {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Instrument, len(c.instruments))
	copy(out, c.instruments)
	return out
}

// Symbols returns the symbols in catalog order.
func (c *Catalog) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.instruments))
	for i, inst := range c.instruments {
		out[i] = inst.Symbol
	}
	return out
}

// Len returns the number of instruments.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.instruments)
}

// ByVolume returns the instruments ordered by 24h volume, highest first.
func ByVolume(instruments []models.Instrument) []models.Instrument {
	out := make([]models.Instrument, len(instruments))
	copy(out, instruments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Volume24h > out[j].Volume24h
	})
	return out
}
