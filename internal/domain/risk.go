package domain

// RiskLimits son los límites duros por día de sesión.
type RiskLimits struct {
	MaxTrades    int
	MaxDailyLoss float64 // pérdida máxima en valor absoluto
}

// RiskState es el acumulado del día: trades cerrados y PnL realizado.
type RiskState struct {
	Trades int
	PnL    float64
}

// RiskStatus indica si se puede seguir operando y por qué no.
type RiskStatus struct {
	OK     bool
	Reason string
}

// CheckRisk evalúa el estado del día contra los límites. Límite en cero o
// negativo = deshabilitado.
func CheckRisk(state RiskState, limits RiskLimits) RiskStatus {
	if limits.MaxTrades > 0 && state.Trades >= limits.MaxTrades {
		return RiskStatus{OK: false, Reason: "max trades reached"}
	}
	if limits.MaxDailyLoss > 0 && state.PnL <= -limits.MaxDailyLoss {
		return RiskStatus{OK: false, Reason: "max loss reached"}
	}
	return RiskStatus{OK: true}
}
