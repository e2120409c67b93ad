package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
)

// TradeLedger persiste los paper trades en particiones por día de sesión.
// Los writes a una partición son single-writer; las lecturas toleran filas
// corruptas (se saltan con log, nunca rompen al caller).
type TradeLedger interface {
	// Open añade un trade nuevo con status OPEN. El contrato de una sola
	// posición abierta por símbolo lo verifica el caller antes de llamar,
	// no el ledger.
	Open(ctx context.Context, rec domain.TradeRecord) error

	// Close localiza el trade por id en la partición del día, fija exit,
	// exit time y PnL y lo marca CLOSED. Cerrar un trade ya CLOSED es un
	// no-op que devuelve la fila tal cual. Trade inexistente →
	// domain.ErrTradeNotFound.
	Close(ctx context.Context, tradeID string, exitPrice float64, at time.Time) (domain.TradeRecord, error)

	// LoadDay devuelve todas las filas de la partición del día dado
	// (formato YYYY-MM-DD). Storage corrupto degrada a lista vacía.
	LoadDay(ctx context.Context, date string) ([]domain.TradeRecord, error)

	// Shutdown cierra el backend limpiamente.
	Shutdown() error
}
