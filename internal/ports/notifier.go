package ports

import (
	"context"

	"github.com/alejandrodnm/intrabot/internal/domain"
)

// Notifier presenta los resultados del pipeline al usuario.
type Notifier interface {
	// PrintScan muestra las filas del scanner en orden de entrada.
	// En la implementación de consola, imprime una tabla formateada.
	PrintScan(ctx context.Context, results []domain.ScanResult) error

	// PrintAdvice muestra la recomendación completa de un símbolo: precio y
	// frescura, gate, confianza, contexto de opciones y decisión final.
	PrintAdvice(ctx context.Context, advice domain.Advice) error

	// PrintTrades muestra los trades del día, abiertos primero.
	PrintTrades(ctx context.Context, trades []domain.TradeRecord) error

	// PrintDayReport muestra el resumen agregado del día.
	PrintDayReport(ctx context.Context, report domain.DayReport) error
}
