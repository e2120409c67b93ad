package domain

import (
	"fmt"
	"time"
)

// Horario de la sesión de contado NSE: 9:15–15:30 IST, lunes a viernes.
const (
	marketTZ    = "Asia/Kolkata"
	openHour    = 9
	openMinute  = 15
	closeHour   = 15
	closeMinute = 30
)

var istLocation = mustLoadIST()

func mustLoadIST() *time.Location {
	loc, err := time.LoadLocation(marketTZ)
	if err != nil {
		// Sin tzdata en el sistema: IST es offset fijo +05:30, sin DST.
		return time.FixedZone("IST", 5*3600+30*60)
	}
	return loc
}

// MarketLocation devuelve la zona horaria de la sesión (IST).
func MarketLocation() *time.Location {
	return istLocation
}

// MarketOpen indica si la sesión de contado está abierta en el instante dado.
// Los extremos son inclusivos: a las 9:15:00 y a las 15:30:00 la sesión cuenta
// como abierta.
func MarketOpen(now time.Time) bool {
	t := now.In(istLocation)
	if !isWeekday(t) {
		return false
	}
	closeAt := time.Date(t.Year(), t.Month(), t.Day(), closeHour, closeMinute, 0, 0, istLocation)
	return !t.Before(sessionOpenAt(t)) && !t.After(closeAt)
}

// sessionOpenAt devuelve la apertura de sesión del día del instante dado.
func sessionOpenAt(t time.Time) time.Time {
	ist := t.In(istLocation)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), openHour, openMinute, 0, 0, istLocation)
}

// NextOpen devuelve la próxima apertura de sesión estrictamente posterior
// al instante dado, saltando fines de semana.
func NextOpen(now time.Time) time.Time {
	t := now.In(istLocation)
	if openAt := sessionOpenAt(t); t.Before(openAt) && isWeekday(t) {
		return openAt
	}
	next := t.AddDate(0, 0, 1)
	for !isWeekday(next) {
		next = next.AddDate(0, 0, 1)
	}
	return time.Date(next.Year(), next.Month(), next.Day(), openHour, openMinute, 0, 0, istLocation)
}

// SessionCountdown devuelve cuánto falta en formato HH:MM:SS: hasta el cierre
// si la sesión está abierta, hasta la próxima apertura si está cerrada.
func SessionCountdown(now time.Time) string {
	t := now.In(istLocation)
	if MarketOpen(now) {
		closeAt := time.Date(t.Year(), t.Month(), t.Day(), closeHour, closeMinute, 0, 0, istLocation)
		return formatHMS(closeAt.Sub(t))
	}
	return formatHMS(NextOpen(now).Sub(t))
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func formatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
