package domain

// Umbrales de los bloqueos duros del combinador.
const (
	bearishPCRThreshold = 0.9
	resistanceProximity = 0.998 // a menos de 0.2% de la resistencia no se entra
	minActionableScore  = 45
)

// Decision es la salida final del combinador: permitido más razón legible.
type Decision struct {
	Allowed bool
	Reason  string
}

// Decide combina sesión, riesgo, contexto de opciones, niveles y confianza en
// un único permitido/denegado. Cortocircuito ordenado: gana la primera
// condición que falla, da igual lo bien que puntúe el resto.
//
// Los bloqueos de PCR, sesgo de opciones y resistencia se aplican sea cual sea
// direction. Es comportamiento heredado fijado por test de regresión
// (TestDecide_BearishBlocksAreDirectionAgnostic); hacerlos direccionales es un
// cambio de producto, no un refactor.
func Decide(marketOpen bool, risk RiskStatus, indexPCR *float64, price, resistance *float64, bias OptionsBias, confidence int, direction Direction) Decision {
	if !marketOpen {
		return Decision{Allowed: false, Reason: "market closed"}
	}
	if !risk.OK {
		return Decision{Allowed: false, Reason: risk.Reason}
	}
	if indexPCR != nil && *indexPCR < bearishPCRThreshold {
		return Decision{Allowed: false, Reason: "index PCR bearish"}
	}
	if bias == BiasBearish {
		return Decision{Allowed: false, Reason: "options bias bearish"}
	}
	if price != nil && resistance != nil && *price >= *resistance*resistanceProximity {
		return Decision{Allowed: false, Reason: "price too near resistance"}
	}
	if confidence < minActionableScore {
		return Decision{Allowed: false, Reason: "low confidence – insufficient edge"}
	}
	return Decision{Allowed: true, Reason: "trade allowed"}
}
