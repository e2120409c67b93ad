package ports

import "github.com/alejandrodnm/intrabot/internal/domain"

// SetupScorer es el scorer ML consultivo. Su salida se adjunta a los
// resultados sin influir jamás en el status ni en la decisión.
type SetupScorer interface {
	// Score devuelve la calidad del setup en [0,1], o nil si la inferencia
	// no está disponible. Nunca devuelve error: un scorer caído es un
	// scorer ausente.
	Score(features domain.SetupFeatures) *float64
}
