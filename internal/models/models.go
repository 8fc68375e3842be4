// Package models provides domain models for the board tracking controller.
package models

import (
	"strings"

	"board-tracker/internal/errors"
)

// ExchangeName identifies a supported exchange.
type ExchangeName string

const (
	Bybit    ExchangeName = "bybit"
	Bitbank  ExchangeName = "bitbank"
	Bitflyer ExchangeName = "bitflyer"
)

// SupportedExchanges returns the exchanges in presentation order.
func SupportedExchanges() []ExchangeName {
	return []ExchangeName{Bybit, Bitbank, Bitflyer}
}

// IsValid reports whether n is a supported exchange.
func (n ExchangeName) IsValid() bool {
	switch n {
	case Bybit, Bitbank, Bitflyer:
		return true
	default:
		return false
	}
}

// RequiresPassphrase reports whether the exchange API needs a passphrase.
func (n ExchangeName) RequiresPassphrase() bool {
	return n == Bitbank
}

// HasCategory reports whether the exchange distinguishes product categories.
func (n ExchangeName) HasCategory() bool {
	return n == Bybit
}

func (n ExchangeName) String() string {
	return string(n)
}

// ParseExchangeName parses a supported exchange name, ignoring case.
func ParseExchangeName(s string) (ExchangeName, error) {
	n := ExchangeName(strings.ToLower(strings.TrimSpace(s)))
	if !n.IsValid() {
		return "", errors.NewValidationError("exchange.name", s, "unsupported exchange")
	}
	return n, nil
}

// BookSide is the side of the order book being watched.
type BookSide string

const (
	BookSideBid BookSide = "bid"
	BookSideAsk BookSide = "ask"
)

// SupportedBookSides returns the book sides in presentation order.
func SupportedBookSides() []BookSide {
	return []BookSide{BookSideAsk, BookSideBid}
}

// IsValid reports whether s is a known book side.
func (s BookSide) IsValid() bool {
	return s == BookSideBid || s == BookSideAsk
}

// Mirror returns the order side paired with the book side.
func (s BookSide) Mirror() OrderSide {
	switch s {
	case BookSideBid:
		return OrderSideBuy
	case BookSideAsk:
		return OrderSideSell
	default:
		return ""
	}
}

// ParseBookSide parses a book side, ignoring case.
func ParseBookSide(s string) (BookSide, error) {
	side := BookSide(strings.ToLower(strings.TrimSpace(s)))
	if !side.IsValid() {
		return "", errors.NewValidationError("board.side", s, "must be bid or ask")
	}
	return side, nil
}

// OrderSide is the side of the tracking order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// SupportedOrderSides returns the order sides in presentation order.
func SupportedOrderSides() []OrderSide {
	return []OrderSide{OrderSideBuy, OrderSideSell}
}

// IsValid reports whether s is a known order side.
func (s OrderSide) IsValid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// Mirror returns the book side paired with the order side.
func (s OrderSide) Mirror() BookSide {
	switch s {
	case OrderSideBuy:
		return BookSideBid
	case OrderSideSell:
		return BookSideAsk
	default:
		return ""
	}
}

// ParseOrderSide parses an order side, ignoring case.
func ParseOrderSide(s string) (OrderSide, error) {
	side := OrderSide(strings.ToLower(strings.TrimSpace(s)))
	if !side.IsValid() {
		return "", errors.NewValidationError("order.side", s, "must be buy or sell")
	}
	return side, nil
}
