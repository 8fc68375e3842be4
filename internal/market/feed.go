package market

import (
	"fmt"
	"sync"

	"board-tracker/internal/errors"
	"board-tracker/internal/models"
)

// Quote seeds one symbol of the paper feed.
type Quote struct {
	Exchange  models.ExchangeName
	Symbol    string
	LTP       float64
	Volume24h float64
	PriceTick float64
	SizeTick  float64
	SizeMin   float64
	BestAsk   float64
	BestBid   float64
}

// Feed is an in-memory market used by the local agent.
// Only bybit is listed; the other exchanges answer with an empty instrument
// list and a zero ticker.
type Feed struct {
	mu      sync.RWMutex
	symbols map[models.ExchangeName][]string
	quotes  map[string]Quote
}

// NewFeed creates a feed seeded with quotes.
func NewFeed(quotes []Quote) *Feed {
	f := &Feed{
		symbols: make(map[models.ExchangeName][]string),
		quotes:  make(map[string]Quote),
	}
	for _, q := range quotes {
		f.UpdateQuote(q)
	}
	return f
}

func quoteKey(exchange models.ExchangeName, symbol string) string {
	return string(exchange) + ":" + symbol
}

// UpdateQuote inserts or replaces a quote.
func (f *Feed) UpdateQuote(q Quote) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := quoteKey(q.Exchange, q.Symbol)
	if _, ok := f.quotes[key]; !ok {
		f.symbols[q.Exchange] = append(f.symbols[q.Exchange], q.Symbol)
	}
	f.quotes[key] = q
}

// Instruments returns the listed instruments of an exchange.
func (f *Feed) Instruments(exchange models.ExchangeName) ([]models.Instrument, error) {
	if !exchange.IsValid() {
		return nil, errors.NewValidationError("exchange_name", exchange, "unsupported exchange")
	}
	if exchange != models.Bybit {
		return []models.Instrument{}, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]models.Instrument, 0, len(f.symbols[exchange]))
	for _, symbol := range f.symbols[exchange] {
		q := f.quotes[quoteKey(exchange, symbol)]
		out = append(out, models.Instrument{
			Symbol:    q.Symbol,
			LTP:       q.LTP,
			Volume24h: q.Volume24h,
			PriceTick: q.PriceTick,
			SizeTick:  q.SizeTick,
			SizeMin:   q.SizeMin,
		})
	}
	return out, nil
}

// Ticker returns the current quote of a symbol.
func (f *Feed) Ticker(exchange models.ExchangeName, symbol string) (*models.Ticker, error) {
	if !exchange.IsValid() {
		return nil, errors.NewValidationError("exchange_name", exchange, "unsupported exchange")
	}
	if exchange != models.Bybit {
		return &models.Ticker{}, nil
	}

	f.mu.RLock()
	q, ok := f.quotes[quoteKey(exchange, symbol)]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", errors.ErrDataNotFound, exchange, symbol)
	}

	return &models.Ticker{
		Symbol:    q.Symbol,
		LTP:       q.LTP,
		Volume24h: q.Volume24h,
		BestAsk:   q.BestAsk,
		BestBid:   q.BestBid,
	}, nil
}
