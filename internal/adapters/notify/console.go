package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier sobre un io.Writer.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintScan imprime la tabla del scanner en el orden de entrada.
func (c *Console) PrintScan(_ context.Context, results []domain.ScanResult) error {
	now := time.Now().In(domain.MarketLocation()).Format("15:04:05")
	if len(results) == 0 {
		fmt.Fprintf(c.out, "[%s] scan sin resultados\n", now)
		return nil
	}

	var buy, watch, avoid int
	for _, r := range results {
		switch r.Status {
		case domain.ScanBuy:
			buy++
		case domain.ScanWatch:
			watch++
		default:
			avoid++
		}
	}
	fmt.Fprintf(c.out, "\n[%s] scan: %d símbolos — BUY:%d WATCH:%d AVOID:%d\n",
		now, len(results), buy, watch, avoid)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Symbol", "Status", "Score", "Label", "Fresh", "ML", "Why")

	for i, r := range results {
		table.Append(
			fmt.Sprintf("%d", i+1),
			r.Symbol,
			statusIcon(r.Status)+" "+string(r.Status),
			fmt.Sprintf("%d", r.Score),
			string(r.Label),
			r.Freshness.Tag(),
			mlLabel(r.MLScore),
			truncate(strings.Join(r.Reasons, "; "), 48),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Score ≥70 BUY | ≥45 WATCH | resto AVOID — ML es consultivo, nunca decide")
	return nil
}

// PrintAdvice imprime el panel de decisión de un símbolo.
func (c *Console) PrintAdvice(_ context.Context, a domain.Advice) error {
	now := time.Now().In(domain.MarketLocation()).Format("15:04:05")

	fmt.Fprintf(c.out, "\n=== %s [%s] ===\n", a.Symbol, now)

	fmt.Fprintf(c.out, "\n  1. PRECIO:\n")
	fmt.Fprintf(c.out, "     ₹%.2f  fuente:%s (%s)  frescura:%s %s%s\n",
		a.Quote.Price, a.Quote.Venue, a.Quote.Source,
		a.Freshness.Tag(), a.Freshness, ageLabel(a.AgeSecs))
	if a.MarketOpen {
		fmt.Fprintf(c.out, "     mercado ABIERTO — cierra en %s\n", a.Session)
	} else {
		fmt.Fprintf(c.out, "     mercado CERRADO — abre en %s\n", a.Session)
	}

	fmt.Fprintf(c.out, "\n  2. GATE DE REGLAS:\n")
	if a.Evaluation.Allowed {
		fmt.Fprintf(c.out, "     ✅ setup permitido\n")
	} else {
		fmt.Fprintf(c.out, "     ⛔ bloqueado: %s\n", a.Evaluation.BlockReason)
	}
	for _, r := range a.Evaluation.Reasons {
		fmt.Fprintf(c.out, "       - %s\n", r)
	}

	fmt.Fprintf(c.out, "\n  3. CONFIANZA: %d/100 [%s]\n", a.Confidence.Score, a.Confidence.Label)
	for _, r := range a.Confidence.Reasons {
		fmt.Fprintf(c.out, "       - %s\n", r)
	}

	fmt.Fprintf(c.out, "\n  4. OPCIONES DEL ÍNDICE:\n")
	if a.IndexPCR != nil {
		fmt.Fprintf(c.out, "     PCR %.2f — %s (%s)\n", *a.IndexPCR, a.Bias, a.BiasDetail)
	} else {
		fmt.Fprintf(c.out, "     sin datos de opciones — %s\n", a.Bias)
	}

	fmt.Fprintf(c.out, "\n  5. RIESGO: %s\n", riskLabel(a.Risk))

	if a.Decision.Allowed {
		fmt.Fprintf(c.out, "\n  >>> ✅ DECISIÓN: %s\n", a.Decision.Reason)
	} else {
		fmt.Fprintf(c.out, "\n  >>> ⛔ DECISIÓN: %s\n", a.Decision.Reason)
	}

	if a.MLScore != nil {
		fmt.Fprintf(c.out, "\n  ML setup quality: %d/100 (consultivo, no decide)\n",
			int(*a.MLScore*100))
	}
	fmt.Fprintln(c.out)
	return nil
}

// PrintTrades imprime los trades del día, abiertos primero.
func (c *Console) PrintTrades(_ context.Context, trades []domain.TradeRecord) error {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "sin trades en el día")
		return nil
	}

	ordered := make([]domain.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if t.IsOpen() {
			ordered = append(ordered, t)
		}
	}
	open := len(ordered)
	for _, t := range trades {
		if !t.IsOpen() {
			ordered = append(ordered, t)
		}
	}

	fmt.Fprintf(c.out, "\n%d trades — %d abiertos, %d cerrados\n", len(trades), open, len(trades)-open)

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Symbol", "Side", "Qty", "Entry", "Exit", "PnL", "In", "Out", "Status", "Strategy")

	for _, t := range ordered {
		exit, out, pnl := "—", "—", "—"
		if t.ExitPrice != nil {
			exit = fmt.Sprintf("%.2f", *t.ExitPrice)
			pnl = fmt.Sprintf("%+.2f", t.PnL)
		}
		if t.ExitTime != nil {
			out = *t.ExitTime
		}
		table.Append(
			t.TradeID,
			t.Symbol,
			string(t.Side),
			fmt.Sprintf("%d", t.Quantity),
			fmt.Sprintf("%.2f", t.EntryPrice),
			exit,
			pnl,
			t.EntryTime,
			out,
			string(t.Status),
			t.Strategy,
		)
	}
	table.Render()
	return nil
}

// PrintDayReport imprime el resumen agregado del día.
func (c *Console) PrintDayReport(_ context.Context, rep domain.DayReport) error {
	fmt.Fprintf(c.out, "\n=== RESUMEN %s ===\n", rep.Date)

	if rep.Total == 0 {
		fmt.Fprintln(c.out, "  sin trades en el día")
		return nil
	}

	fmt.Fprintf(c.out, "  trades: %d (%d abiertos, %d cerrados)\n", rep.Total, rep.Open, rep.Closed)
	if rep.Closed > 0 {
		fmt.Fprintf(c.out, "  wins/losses: %d/%d  win rate: %.1f%%\n", rep.Wins, rep.Losses, rep.WinRate)
		fmt.Fprintf(c.out, "  PnL del día: ₹%+.2f\n", rep.TotalPnL)
		if rep.Best != nil {
			fmt.Fprintf(c.out, "  mejor:  %s %s ₹%+.2f\n", rep.Best.TradeID, rep.Best.Symbol, rep.Best.PnL)
		}
		if rep.Worst != nil {
			fmt.Fprintf(c.out, "  peor:   %s %s ₹%+.2f\n", rep.Worst.TradeID, rep.Worst.Symbol, rep.Worst.PnL)
		}
	}
	return nil
}

// --- helpers ---

func statusIcon(s domain.ScanStatus) string {
	switch s {
	case domain.ScanBuy:
		return "🟢"
	case domain.ScanWatch:
		return "🟡"
	default:
		return "🔴"
	}
}

func mlLabel(score *float64) string {
	if score == nil {
		return "—"
	}
	return fmt.Sprintf("%d", int(*score*100))
}

func ageLabel(secs *int) string {
	if secs == nil {
		return ""
	}
	return fmt.Sprintf(" (%ds)", *secs)
}

func riskLabel(r domain.RiskStatus) string {
	if r.OK {
		return "✅ dentro de límites"
	}
	return "⛔ " + r.Reason
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
