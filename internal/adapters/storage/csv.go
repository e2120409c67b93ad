package storage

// csv.go — backend alternativo del libro: un CSV por día de sesión, con
// cabecera legible. Pensado para inspección manual y para importar el
// histórico en hojas de cálculo; SQLite sigue siendo el backend por defecto.

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
)

// csvHeader es el orden canónico de columnas. Ficheros viejos con menos
// columnas se leen igual: las que falten salen vacías.
var csvHeader = []string{
	"Trade ID", "Date", "Symbol", "Side", "Entry", "Exit", "Qty", "PnL",
	"Entry Time", "Exit Time", "Strategy", "Options Bias", "Market Status",
	"Notes", "Status",
}

// CSVLedger implementa ports.TradeLedger con un fichero por día.
type CSVLedger struct {
	dir string
	mu  sync.Mutex
}

// NewCSVLedger crea el directorio de particiones si no existe.
func NewCSVLedger(dir string) (*CSVLedger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewCSVLedger: mkdir %q: %w", dir, err)
	}
	return &CSVLedger{dir: dir}, nil
}

// Open añade el trade al final del CSV de su día, creándolo con cabecera la
// primera vez.
func (l *CSVLedger) Open(_ context.Context, rec domain.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.dayFile(rec.Date)
	writeHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("storage.CSVLedger.Open %s: %w: %w", rec.TradeID, domain.ErrLedgerWrite, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("storage.CSVLedger.Open %s: %w: %w", rec.TradeID, domain.ErrLedgerWrite, err)
		}
	}
	if err := w.Write(toRow(rec)); err != nil {
		return fmt.Errorf("storage.CSVLedger.Open %s: %w: %w", rec.TradeID, domain.ErrLedgerWrite, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("storage.CSVLedger.Open %s: %w: %w", rec.TradeID, domain.ErrLedgerWrite, err)
	}
	return nil
}

// Close parchea la fila del trade y reescribe el fichero del día de forma
// atómica (tmp + rename). Recerrar es un no-op que devuelve lo guardado.
func (l *CSVLedger) Close(ctx context.Context, tradeID string, exitPrice float64, at time.Time) (domain.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	date := domain.TradingDay(at)
	records, err := l.readDay(date)
	if err != nil {
		return domain.TradeRecord{}, err
	}

	idx := -1
	for i, rec := range records {
		if rec.TradeID == tradeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.TradeRecord{}, fmt.Errorf("storage.CSVLedger %s/%s: %w", date, tradeID, domain.ErrTradeNotFound)
	}
	if !records[idx].IsOpen() {
		return records[idx], nil
	}

	exitTime := domain.ClockTime(at)
	records[idx].ExitPrice = &exitPrice
	records[idx].ExitTime = &exitTime
	records[idx].PnL = domain.ComputePnL(records[idx].Side, records[idx].EntryPrice, exitPrice, records[idx].Quantity)
	records[idx].Status = domain.TradeStatusClosed

	if err := l.rewriteDay(date, records); err != nil {
		return domain.TradeRecord{}, fmt.Errorf("storage.CSVLedger.Close %s: %w: %w", tradeID, domain.ErrLedgerWrite, err)
	}
	return records[idx], nil
}

// LoadDay devuelve los trades del día en orden de fichero. Un día sin fichero
// es un día sin trades, no un error.
func (l *CSVLedger) LoadDay(_ context.Context, date string) ([]domain.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readDay(date)
}

// Shutdown no retiene recursos entre llamadas.
func (l *CSVLedger) Shutdown() error { return nil }

func (l *CSVLedger) dayFile(date string) string {
	return filepath.Join(l.dir, date+".csv")
}

// readDay lee tolerante: las columnas se resuelven por nombre de cabecera,
// las que falten salen vacías y las filas ilegibles se saltan. Caller
// sostiene l.mu.
func (l *CSVLedger) readDay(date string) ([]domain.TradeRecord, error) {
	f, err := os.Open(l.dayFile(date))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.CSVLedger.LoadDay %s: %w", date, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage.CSVLedger.LoadDay %s: %w", date, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.TrimSpace(name)] = i
	}

	var out []domain.TradeRecord
	for _, row := range rows[1:] {
		rec, ok := fromRow(cols, row)
		if !ok {
			slog.Warn("storage: fila CSV ilegible, se omite", "date", date)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// rewriteDay escribe el día entero en un tmp y lo renombra encima del
// original: o se ve el fichero viejo o el nuevo, nunca uno a medias.
// Caller sostiene l.mu.
func (l *CSVLedger) rewriteDay(date string, records []domain.TradeRecord) error {
	path := l.dayFile(date)
	tmp, err := os.CreateTemp(l.dir, date+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, rec := range records {
		if err := w.Write(toRow(rec)); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func toRow(rec domain.TradeRecord) []string {
	exit := ""
	if rec.ExitPrice != nil {
		exit = formatPrice(*rec.ExitPrice)
	}
	exitTime := ""
	if rec.ExitTime != nil {
		exitTime = *rec.ExitTime
	}
	return []string{
		rec.TradeID,
		rec.Date,
		rec.Symbol,
		string(rec.Side),
		formatPrice(rec.EntryPrice),
		exit,
		strconv.Itoa(rec.Quantity),
		formatPrice(rec.PnL),
		rec.EntryTime,
		exitTime,
		rec.Strategy,
		rec.OptionsBias,
		rec.MarketStatus,
		rec.Notes,
		string(rec.Status),
	}
}

// fromRow reconstruye el trade de una fila resolviendo columnas por nombre;
// ok=false si la fila no da ni para identificar el trade.
func fromRow(cols map[string]int, row []string) (domain.TradeRecord, bool) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	entry, err := parsePrice(get("Entry"))
	if err != nil {
		return domain.TradeRecord{}, false
	}
	qty := 1
	if n, err := strconv.Atoi(get("Qty")); err == nil && n > 0 {
		qty = n
	}
	pnl, _ := parsePrice(get("PnL"))

	rec := domain.TradeRecord{
		TradeID:      get("Trade ID"),
		Date:         get("Date"),
		Symbol:       get("Symbol"),
		Side:         domain.Side(get("Side")),
		EntryPrice:   entry,
		Quantity:     qty,
		PnL:          pnl,
		EntryTime:    get("Entry Time"),
		Strategy:     get("Strategy"),
		OptionsBias:  get("Options Bias"),
		MarketStatus: get("Market Status"),
		Notes:        get("Notes"),
		Status:       domain.TradeStatus(get("Status")),
	}
	if rec.TradeID == "" {
		return domain.TradeRecord{}, false
	}
	if rec.Status == "" {
		rec.Status = domain.TradeStatusOpen
	}
	if v := get("Exit"); v != "" {
		if price, err := parsePrice(v); err == nil {
			rec.ExitPrice = &price
		}
	}
	if v := get("Exit Time"); v != "" {
		rec.ExitTime = &v
	}
	return rec, true
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parsePrice(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
