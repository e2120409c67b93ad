package config

import (
	"strings"
	"time"
)

// Tier es el nivel de suscripción de la sesión. El core nunca hace lookups
// por string: el tier se resuelve una vez aquí y circula tipado.
type Tier string

const (
	TierFree  Tier = "FREE"
	TierBasic Tier = "BASIC"
	TierPro   Tier = "PRO"
	TierElite Tier = "ELITE"
)

// TierCaps son las capacidades de un tier. Límites en nil = sin límite.
type TierCaps struct {
	Label        string
	HistoryDays  *int // días de histórico visibles; nil = todo
	MLEnabled    bool // acceso al scorer consultivo
	ScannerLimit *int // símbolos visibles del scanner; nil = sin tope
	FastRefresh  bool
	LiveOptions  bool
	RefreshSecs  int // periodo de refresco del modo watch
}

var tierTable = map[Tier]TierCaps{
	TierFree: {
		Label:        "Free",
		HistoryDays:  intPtr(1),
		MLEnabled:    false,
		ScannerLimit: intPtr(1),
		FastRefresh:  false,
		LiveOptions:  false,
		RefreshSecs:  20,
	},
	TierBasic: {
		Label:        "Basic",
		HistoryDays:  intPtr(7),
		MLEnabled:    false,
		ScannerLimit: intPtr(3),
		FastRefresh:  false,
		LiveOptions:  false,
		RefreshSecs:  15,
	},
	TierPro: {
		Label:        "Pro",
		HistoryDays:  intPtr(7),
		MLEnabled:    true,
		ScannerLimit: intPtr(8),
		FastRefresh:  true,
		LiveOptions:  true,
		RefreshSecs:  7,
	},
	TierElite: {
		Label:       "Elite",
		MLEnabled:   true,
		FastRefresh: true,
		LiveOptions: true,
		RefreshSecs: 5,
	},
}

// ParseTier normaliza un nombre de tier; desconocido o vacío → FREE.
func ParseTier(s string) Tier {
	switch Tier(strings.ToUpper(strings.TrimSpace(s))) {
	case TierBasic:
		return TierBasic
	case TierPro:
		return TierPro
	case TierElite:
		return TierElite
	default:
		return TierFree
	}
}

// Caps devuelve las capacidades del tier.
func (t Tier) Caps() TierCaps {
	caps, ok := tierTable[t]
	if !ok {
		return tierTable[TierFree]
	}
	return caps
}

// Refresh devuelve el periodo de refresco del modo watch para el tier.
func (t Tier) Refresh() time.Duration {
	return time.Duration(t.Caps().RefreshSecs) * time.Second
}

// CapSymbols recorta la lista de símbolos al límite del scanner del tier.
// El scanner calcula la lista completa; el recorte es responsabilidad del
// caller y preserva el orden de entrada.
func (t Tier) CapSymbols(symbols []string) []string {
	limit := t.Caps().ScannerLimit
	if limit == nil || len(symbols) <= *limit {
		return symbols
	}
	return symbols[:*limit]
}

func intPtr(v int) *int { return &v }
