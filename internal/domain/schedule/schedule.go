// Package schedule calcula elegibilidad de dosis y textos de estado a partir
// de un plan y la hora actual. Aritmética de reloj pura: sin redondeos de
// calendario.
package schedule

import (
	"fmt"
	"time"

	"medibot/internal/domain/medications"
)

const absoluteLayout = "2006-01-02 15:04 MST"

// NextDose devuelve el instante desde el que se puede volver a tomar, o nil
// si nunca se tomó.
func NextDose(m medications.Medication) *time.Time {
	if m.LastTaken == nil {
		return nil
	}
	next := m.LastTaken.Add(m.Frequency.Interval())
	return &next
}

// CanTake: true si nunca se tomó o si now >= lastTaken + hours.
func CanTake(m medications.Medication, now time.Time) bool {
	next := NextDose(m)
	return next == nil || !now.Before(*next)
}

// NextEligibleIn: "now", "in X hours and Y minutes" o "in Y minutes".
func NextEligibleIn(m medications.Medication, now time.Time) string {
	if CanTake(m, now) {
		return "now"
	}
	remaining := NextDose(m).Sub(now)
	hours := int(remaining / time.Hour)
	minutes := int((remaining % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("in %d hours and %d minutes", hours, minutes)
	}
	return fmt.Sprintf("in %d minutes", minutes)
}

// RenderLastTaken: "not yet"; relativo si fue hace menos de 24h; absoluto en
// la zona horaria del usuario en otro caso.
func RenderLastTaken(m medications.Medication, now time.Time, loc *time.Location) string {
	if m.LastTaken == nil {
		return "not yet"
	}
	return RenderAgo(*m.LastTaken, now, loc)
}

// RenderAgo humaniza un instante pasado.
func RenderAgo(at, now time.Time, loc *time.Location) string {
	delta := now.Sub(at)
	switch {
	case delta >= 24*time.Hour:
		return RenderAbsolute(at, loc)
	case delta >= time.Hour:
		return fmt.Sprintf("%d hours ago", int(delta/time.Hour))
	case delta >= time.Minute:
		return fmt.Sprintf("%d minutes ago", int(delta/time.Minute))
	default:
		// Incluye deltas negativos por desfase de reloj.
		return "just now"
	}
}

func RenderAbsolute(at time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return at.In(loc).Format(absoluteLayout)
}

// StatusEmoji marca si la dosis está disponible.
func StatusEmoji(m medications.Medication, now time.Time) string {
	if CanTake(m, now) {
		return "✅"
	}
	return "🙅"
}

// Summary es la línea de listado de un plan.
func Summary(m medications.Medication, now time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s (%s) - %s. Last taken: %s. Can take next: %s %s.",
		m.MedicineName,
		m.Dosage,
		m.Frequency,
		RenderLastTaken(m, now, loc),
		NextEligibleIn(m, now),
		StatusEmoji(m, now),
	)
}
