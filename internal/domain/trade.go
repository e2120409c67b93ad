package domain

import (
	"errors"
	"strconv"
	"sync"
	"time"
)

// TradeStatus represents the lifecycle of a paper trade.
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// Side is the direction a paper trade was entered with.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Ledger errors shared by every storage backend.
var (
	ErrPositionOpen  = errors.New("an open position already exists for this symbol")
	ErrTradeNotFound = errors.New("trade not found in today's partition")
	ErrLedgerWrite   = errors.New("ledger write failed")
)

// ErrInvalidInput rejects impossible trade inputs (non-positive price or
// quantity, unknown side) before they reach the ledger.
var ErrInvalidInput = errors.New("invalid input")

// TradeRecord is one persisted paper trade row. A record is created OPEN and
// mutated exactly once to CLOSED; it is never deleted. At most one OPEN record
// may exist per symbol per trading day: callers must check before opening, the
// ledger itself does not enforce it.
type TradeRecord struct {
	TradeID      string
	Date         string // trading day partition key, YYYY-MM-DD
	Symbol       string
	Side         Side
	EntryPrice   float64
	ExitPrice    *float64
	Quantity     int
	PnL          float64
	EntryTime    string // HH:MM:SS
	ExitTime     *string
	Strategy     string
	OptionsBias  string
	MarketStatus string
	Notes        string
	Status       TradeStatus
}

// IsOpen reports whether the trade still has an open position.
func (t TradeRecord) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// ComputePnL returns the realized profit for a closed trade, rounded to two
// decimals: (exit-entry)*qty for BUY, (entry-exit)*qty for SELL.
func ComputePnL(side Side, entry, exit float64, qty int) float64 {
	if side == SideSell {
		return round2((entry - exit) * float64(qty))
	}
	return round2((exit - entry) * float64(qty))
}

// TradingDay formats the partition key for a point in time. The partition
// follows the exchange calendar, so the instant is read in IST.
func TradingDay(t time.Time) string {
	return t.In(MarketLocation()).Format("2006-01-02")
}

// ClockTime formats the intraday timestamp stored on trade rows, in IST.
func ClockTime(t time.Time) string {
	return t.In(MarketLocation()).Format("15:04:05")
}

var (
	idMu     sync.Mutex
	lastIDMs int64
)

// NewTradeID returns a time-derived id ("T" + unix milliseconds), strictly
// increasing within the process so two opens in the same millisecond cannot
// collide.
func NewTradeID(now time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()

	ms := now.UnixMilli()
	if ms <= lastIDMs {
		ms = lastIDMs + 1
	}
	lastIDMs = ms
	return "T" + strconv.FormatInt(ms, 10)
}
