package domain

import "math"

// DayReport es el cierre agregado de un día de paper trading.
type DayReport struct {
	Date     string
	Total    int
	Open     int
	Closed   int
	Wins     int
	Losses   int
	TotalPnL float64
	WinRate  float64 // porcentaje sobre trades cerrados, 0 si no hay
	Best     *TradeRecord
	Worst    *TradeRecord
}

// BuildDayReport agrega los trades de una partición diaria. Solo los CLOSED
// cuentan para wins/losses y PnL; los abiertos se reportan aparte.
func BuildDayReport(date string, trades []TradeRecord) DayReport {
	rep := DayReport{Date: date, Total: len(trades)}

	for i := range trades {
		t := trades[i]
		if t.IsOpen() {
			rep.Open++
			continue
		}
		rep.Closed++
		rep.TotalPnL += t.PnL
		if t.PnL > 0 {
			rep.Wins++
		} else if t.PnL < 0 {
			rep.Losses++
		}
		if rep.Best == nil || t.PnL > rep.Best.PnL {
			rep.Best = &trades[i]
		}
		if rep.Worst == nil || t.PnL < rep.Worst.PnL {
			rep.Worst = &trades[i]
		}
	}

	rep.TotalPnL = math.Round(rep.TotalPnL*100) / 100
	if rep.Closed > 0 {
		rep.WinRate = math.Round(float64(rep.Wins)/float64(rep.Closed)*1000) / 10
	}
	return rep
}
