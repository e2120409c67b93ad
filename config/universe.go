package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Universos de símbolos por índice NSE. Listas core, no las composiciones
// oficiales completas: el scanner intradía no necesita el universo entero.
var universes = map[string][]string{
	"NIFTY 50": {
		"RELIANCE", "TCS", "INFY", "HDFCBANK", "ICICIBANK", "SBIN",
		"ITC", "LT", "AXISBANK", "KOTAKBANK", "HINDUNILVR",
		"BHARTIARTL", "BAJFINANCE", "ASIANPAINT", "HCLTECH",
		"TITAN", "MARUTI", "SUNPHARMA", "ULTRACEMCO", "NTPC",
		"POWERGRID", "NESTLEIND", "ONGC", "ADANIENT", "ADANIPORTS",
		"WIPRO", "JSWSTEEL", "TATAMOTORS", "COALINDIA", "BPCL",
		"INDUSINDBK", "BAJAJFINSV", "HDFCLIFE", "SBILIFE",
		"DIVISLAB", "DRREDDY", "EICHERMOT", "GRASIM",
		"HEROMOTOCO", "BRITANNIA", "HINDALCO", "TATASTEEL",
		"APOLLOHOSP", "CIPLA", "M&M", "SHREECEM",
		"TECHM", "UPL",
	},
	"NIFTY NEXT 50": {
		"ADANIGREEN", "ADANIPOWER", "AMBUJACEM", "AUROPHARMA",
		"BANDHANBNK", "BERGEPAINT", "BIOCON", "BOSCHLTD",
		"CANBK", "CHOLAFIN", "COLPAL", "DABUR",
		"DLF", "GAIL", "GODREJCP", "HAVELLS",
		"ICICIPRULI", "IGL", "INDIGO", "JINDALSTEL",
		"LTFH", "LICHSGFIN", "LUPIN", "MARICO",
		"MUTHOOTFIN", "NAUKRI", "NMDC", "PAGEIND",
		"PETRONET", "PIDILITIND", "PNB", "SIEMENS",
		"SRF", "TATACOMM", "TORNTPHARM", "TVSMOTOR",
		"UBL", "VEDL", "VOLTAS", "ZEEL",
	},
}

// Universe devuelve los símbolos del índice dado; índice desconocido →
// NIFTY 50. Devuelve una copia: el universo base es inmutable.
func Universe(index string) []string {
	list, ok := universes[strings.ToUpper(strings.TrimSpace(index))]
	if !ok {
		list = universes["NIFTY 50"]
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// DailyWatchlist deriva la selección diaria de n símbolos del universo de
// forma determinista: misma fecha + mismo universo → misma lista para todos
// los usuarios durante todo el día.
func DailyWatchlist(date string, universe []string, n int) []string {
	if len(universe) == 0 || n <= 0 {
		return nil
	}

	sorted := make([]string, len(universe))
	copy(sorted, universe)
	sort.Strings(sorted)

	seed := date + "_" + strings.Join(sorted, "_")
	sum := sha256.Sum256([]byte(seed))
	h := hex.EncodeToString(sum[:])

	picks := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for i := 0; i+2 <= len(h); i += 2 {
		idx := int(mustHexByte(h[i:i+2])) % len(universe)
		s := universe[idx]
		if seen[s] {
			continue
		}
		seen[s] = true
		picks = append(picks, s)
		if len(picks) == n {
			break
		}
	}
	return picks
}

func mustHexByte(s string) byte {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) == 0 {
		return 0
	}
	return b[0]
}
