package paper

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/alejandrodnm/intrabot/internal/ports"
)

// DefaultLimits son los límites de riesgo de un día de paper trading.
var DefaultLimits = domain.RiskLimits{
	MaxTrades:    10,
	MaxDailyLoss: 5000,
}

// Engine gestiona los paper trades del día sobre un ledger particionado.
// Es el único punto de entrada de escritura: el contrato de una sola
// posición OPEN por símbolo se verifica aquí, bajo el lock del engine,
// antes de tocar el ledger.
type Engine struct {
	ledger ports.TradeLedger
	limits domain.RiskLimits
	now    func() time.Time

	mu sync.Mutex // serializa el check-then-insert de OpenTrade
}

// New crea un Engine con los límites dados (cero → DefaultLimits).
func New(ledger ports.TradeLedger, limits domain.RiskLimits) *Engine {
	return NewWithClock(ledger, limits, time.Now)
}

// NewWithClock crea un Engine con reloj inyectable para tests.
func NewWithClock(ledger ports.TradeLedger, limits domain.RiskLimits, now func() time.Time) *Engine {
	if limits.MaxTrades <= 0 {
		limits.MaxTrades = DefaultLimits.MaxTrades
	}
	if limits.MaxDailyLoss <= 0 {
		limits.MaxDailyLoss = DefaultLimits.MaxDailyLoss
	}
	return &Engine{ledger: ledger, limits: limits, now: now}
}

// Limits devuelve los límites de riesgo configurados.
func (e *Engine) Limits() domain.RiskLimits {
	return e.limits
}

// OpenTrade abre un paper trade nuevo. Devuelve ErrPositionOpen si el símbolo
// ya tiene una posición OPEN en la partición de hoy y ErrInvalidInput ante
// precio o cantidad no positivos.
func (e *Engine) OpenTrade(ctx context.Context, symbol string, side domain.Side, price float64, qty int, strategy, bias, note string) (domain.TradeRecord, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.TradeRecord{}, fmt.Errorf("paper.Engine.OpenTrade: empty symbol: %w", domain.ErrInvalidInput)
	}
	if price <= 0 || math.IsNaN(price) {
		return domain.TradeRecord{}, fmt.Errorf("paper.Engine.OpenTrade %s: price %v: %w", symbol, price, domain.ErrInvalidInput)
	}
	if qty <= 0 {
		return domain.TradeRecord{}, fmt.Errorf("paper.Engine.OpenTrade %s: qty %d: %w", symbol, qty, domain.ErrInvalidInput)
	}
	if side != domain.SideBuy && side != domain.SideSell {
		return domain.TradeRecord{}, fmt.Errorf("paper.Engine.OpenTrade %s: side %q: %w", symbol, side, domain.ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	today := domain.TradingDay(now)

	trades, err := e.ledger.LoadDay(ctx, today)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("paper.Engine.OpenTrade %s: %w", symbol, err)
	}
	for _, t := range trades {
		if t.Symbol == symbol && t.IsOpen() {
			return domain.TradeRecord{}, fmt.Errorf("paper.Engine.OpenTrade %s (open id %s): %w", symbol, t.TradeID, domain.ErrPositionOpen)
		}
	}

	rec := domain.TradeRecord{
		TradeID:      domain.NewTradeID(now),
		Date:         today,
		Symbol:       symbol,
		Side:         side,
		EntryPrice:   price,
		Quantity:     qty,
		EntryTime:    domain.ClockTime(now),
		Strategy:     strategy,
		OptionsBias:  bias,
		MarketStatus: marketStatusLabel(now),
		Notes:        note,
		Status:       domain.TradeStatusOpen,
	}

	if err := e.ledger.Open(ctx, rec); err != nil {
		return domain.TradeRecord{}, fmt.Errorf("paper.Engine.OpenTrade %s: %w", symbol, err)
	}
	return rec, nil
}

// CloseTrade cierra el trade por id al precio dado. Cerrar un trade ya
// cerrado devuelve la fila tal cual, sin doble contabilidad.
func (e *Engine) CloseTrade(ctx context.Context, tradeID string, exitPrice float64) (domain.TradeRecord, error) {
	if exitPrice <= 0 || math.IsNaN(exitPrice) {
		return domain.TradeRecord{}, fmt.Errorf("paper.Engine.CloseTrade %s: exit %v: %w", tradeID, exitPrice, domain.ErrInvalidInput)
	}

	rec, err := e.ledger.Close(ctx, tradeID, exitPrice, e.now())
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("paper.Engine.CloseTrade %s: %w", tradeID, err)
	}
	return rec, nil
}

// Trades devuelve las filas de la partición de hoy.
func (e *Engine) Trades(ctx context.Context) ([]domain.TradeRecord, error) {
	today := domain.TradingDay(e.now())
	trades, err := e.ledger.LoadDay(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("paper.Engine.Trades: %w", err)
	}
	return trades, nil
}

// DayReport agrega la partición de hoy en el resumen del día.
func (e *Engine) DayReport(ctx context.Context) (domain.DayReport, error) {
	today := domain.TradingDay(e.now())
	trades, err := e.ledger.LoadDay(ctx, today)
	if err != nil {
		return domain.DayReport{}, fmt.Errorf("paper.Engine.DayReport: %w", err)
	}
	return domain.BuildDayReport(today, trades), nil
}

// RiskState recalcula el acumulado de riesgo del día desde el ledger:
// trades cerrados y PnL realizado. Los abiertos no cuentan todavía.
func (e *Engine) RiskState(ctx context.Context) (domain.RiskState, error) {
	trades, err := e.ledger.LoadDay(ctx, domain.TradingDay(e.now()))
	if err != nil {
		return domain.RiskState{}, fmt.Errorf("paper.Engine.RiskState: %w", err)
	}

	var state domain.RiskState
	for _, t := range trades {
		if t.IsOpen() {
			continue
		}
		state.Trades++
		state.PnL += t.PnL
	}
	return state, nil
}

// RiskStatus aplica los límites del engine al estado actual del día.
func (e *Engine) RiskStatus(ctx context.Context) (domain.RiskStatus, error) {
	state, err := e.RiskState(ctx)
	if err != nil {
		return domain.RiskStatus{}, err
	}
	return domain.CheckRisk(state, e.limits), nil
}

// marketStatusLabel etiqueta el estado de la sesión en el momento de entrada.
func marketStatusLabel(now time.Time) string {
	if domain.MarketOpen(now) {
		return "OPEN"
	}
	return "CLOSED"
}
