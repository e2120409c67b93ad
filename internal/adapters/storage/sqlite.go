package storage

// sqlite.go — libro de trades en papel particionado por día de sesión.
//
// Estrategia:
//   - `trades`: una fila por trade, clave (trade_date, trade_id). Las filas
//     nacen OPEN y mutan UNA vez a CLOSED; nunca se borran.
//   - El cierre es idempotente: recerrar devuelve la fila guardada tal cual,
//     sin recalcular PnL.
//   - Lectura tolerante: filas viejas sin columnas nuevas salen con defaults,
//     una fila corrupta no tumba la carga del día.

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    trade_id      TEXT NOT NULL,
    trade_date    TEXT NOT NULL,
    symbol        TEXT NOT NULL,
    side          TEXT NOT NULL,
    entry_price   REAL NOT NULL,
    exit_price    REAL,
    qty           INTEGER NOT NULL DEFAULT 1,
    pnl           REAL NOT NULL DEFAULT 0,
    entry_time    TEXT NOT NULL,
    exit_time     TEXT,
    strategy      TEXT NOT NULL DEFAULT '',
    options_bias  TEXT NOT NULL DEFAULT '',
    market_status TEXT NOT NULL DEFAULT '',
    notes         TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'OPEN',
    PRIMARY KEY (trade_date, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_date        ON trades(trade_date);
CREATE INDEX IF NOT EXISTS idx_trades_date_symbol ON trades(trade_date, symbol);
CREATE INDEX IF NOT EXISTS idx_trades_status      ON trades(status);
`

// SQLiteLedger implementa ports.TradeLedger sobre SQLite (pure Go, sin CGo).
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger abre (o crea) la base de datos en la ruta dada y aplica
// schema y migraciones.
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteLedger: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteLedger: apply schema: %w", err)
	}

	// Migraciones silenciosas — fallan si la columna ya existe, y está bien.
	for _, stmt := range []string{
		"ALTER TABLE trades ADD COLUMN options_bias TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE trades ADD COLUMN market_status TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE trades ADD COLUMN notes TEXT NOT NULL DEFAULT ''",
	} {
		db.Exec(stmt)
	}

	return &SQLiteLedger{db: db}, nil
}

// Open inserta un trade recién abierto en la partición de su día.
func (s *SQLiteLedger) Open(ctx context.Context, rec domain.TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (trade_id, trade_date, symbol, side, entry_price,
		                    exit_price, qty, pnl, entry_time, exit_time,
		                    strategy, options_bias, market_status, notes, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TradeID, rec.Date, rec.Symbol, string(rec.Side), rec.EntryPrice,
		rec.ExitPrice, rec.Quantity, rec.PnL, rec.EntryTime, rec.ExitTime,
		rec.Strategy, rec.OptionsBias, rec.MarketStatus, rec.Notes, string(rec.Status),
	)
	if err != nil {
		return fmt.Errorf("storage.SQLiteLedger.Open %s: %w: %w", rec.TradeID, domain.ErrLedgerWrite, err)
	}
	return nil
}

// Close cierra un trade de la partición de hoy calculando su PnL. Recerrar un
// trade ya cerrado es un no-op que devuelve la fila guardada; un trade_id que
// no existe en el día devuelve ErrTradeNotFound.
func (s *SQLiteLedger) Close(ctx context.Context, tradeID string, exitPrice float64, at time.Time) (domain.TradeRecord, error) {
	date := domain.TradingDay(at)

	current, err := s.loadOne(ctx, date, tradeID)
	if err != nil {
		return domain.TradeRecord{}, err
	}
	if !current.IsOpen() {
		return current, nil
	}

	pnl := domain.ComputePnL(current.Side, current.EntryPrice, exitPrice, current.Quantity)
	exitTime := domain.ClockTime(at)

	res, err := s.db.ExecContext(ctx, `
		UPDATE trades
		SET exit_price = ?, exit_time = ?, pnl = ?, status = ?
		WHERE trade_date = ? AND trade_id = ? AND status = ?`,
		exitPrice, exitTime, pnl, string(domain.TradeStatusClosed),
		date, tradeID, string(domain.TradeStatusOpen),
	)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("storage.SQLiteLedger.Close %s: %w: %w", tradeID, domain.ErrLedgerWrite, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Carrera con otro cierre: devolver lo que quedó guardado.
		return s.loadOne(ctx, date, tradeID)
	}

	current.ExitPrice = &exitPrice
	current.ExitTime = &exitTime
	current.PnL = pnl
	current.Status = domain.TradeStatusClosed
	return current, nil
}

// LoadDay devuelve todos los trades de la partición, en orden de inserción.
func (s *SQLiteLedger) LoadDay(ctx context.Context, date string) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_id, trade_date, symbol, side, entry_price, exit_price,
		       qty, pnl, entry_time, exit_time, strategy, options_bias,
		       market_status, notes, status
		FROM trades
		WHERE trade_date = ?
		ORDER BY rowid`, date)
	if err != nil {
		return nil, fmt.Errorf("storage.SQLiteLedger.LoadDay %s: %w", date, err)
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			// Una fila rota no tumba el día entero.
			slog.Warn("storage: fila de trade ilegible, se omite", "date", date, "err", err)
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Shutdown cierra la conexión a la base de datos.
func (s *SQLiteLedger) Shutdown() error {
	return s.db.Close()
}

// loadOne carga un trade por clave; ErrTradeNotFound si no existe.
func (s *SQLiteLedger) loadOne(ctx context.Context, date, tradeID string) (domain.TradeRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT trade_id, trade_date, symbol, side, entry_price, exit_price,
		       qty, pnl, entry_time, exit_time, strategy, options_bias,
		       market_status, notes, status
		FROM trades
		WHERE trade_date = ? AND trade_id = ?`, date, tradeID)

	rec, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return domain.TradeRecord{}, fmt.Errorf("storage.SQLiteLedger %s/%s: %w", date, tradeID, domain.ErrTradeNotFound)
	}
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("storage.SQLiteLedger %s/%s: %w", date, tradeID, err)
	}
	return rec, nil
}

// rowScanner cubre *sql.Row y *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(r rowScanner) (domain.TradeRecord, error) {
	var rec domain.TradeRecord
	var side, status string
	var exitPrice sql.NullFloat64
	var exitTime sql.NullString

	if err := r.Scan(
		&rec.TradeID, &rec.Date, &rec.Symbol, &side, &rec.EntryPrice,
		&exitPrice, &rec.Quantity, &rec.PnL, &rec.EntryTime, &exitTime,
		&rec.Strategy, &rec.OptionsBias, &rec.MarketStatus, &rec.Notes, &status,
	); err != nil {
		return domain.TradeRecord{}, err
	}

	rec.Side = domain.Side(side)
	rec.Status = domain.TradeStatus(status)
	if exitPrice.Valid {
		rec.ExitPrice = &exitPrice.Float64
	}
	if exitTime.Valid {
		rec.ExitTime = &exitTime.String
	}
	return rec, nil
}
