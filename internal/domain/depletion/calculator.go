// Package depletion calcula la línea de tiempo de agotamiento de un ítem de stock
// y su clasificación (ok / bajo / agotado). Funciones puras, sin efectos laterales.
package depletion

import (
	"time"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// Day duración de un día de calendario para el cálculo (24h exactas, sin DST).
const Day = 24 * time.Hour

const dayMillis int64 = 86_400_000

// LowThresholdDays a partir de cuántos días restantes un ítem se considera bajo.
const LowThresholdDays = 2

// MaxRemindDaysBefore días máximos de anticipación del recordatorio.
const MaxRemindDaysBefore = 2

// Status clasificación derivada de un ítem.
type Status string

const (
	StatusUnknown Status = "unknown" // sin fecha de agotamiento todavía
	StatusOK      Status = "ok"
	StatusLow     Status = "low"
	StatusExpired Status = "expired"
)

// NeedsAlert indica si la clasificación requiere una notificación.
func (s Status) NeedsAlert() bool {
	return s == StatusLow || s == StatusExpired
}

// AlertKind traduce la clasificación al tipo de alerta (solo válido si NeedsAlert).
func (s Status) AlertKind() entity.AlertKind {
	if s == StatusExpired {
		return entity.AlertExpired
	}
	return entity.AlertLow
}

// Timeline instantes derivados de (inicio, duración).
type Timeline struct {
	StartAt          time.Time
	DepletionAt      time.Time
	ReminderAt       time.Time
	DurationDays     int
	RemindDaysBefore int
}

// NewTimeline calcula agotamiento = inicio + días y recordatorio = agotamiento − min(2, días).
// La validación del rango de días se hace en el borde de entrada, no aquí.
func NewTimeline(start time.Time, durationDays int) Timeline {
	before := min(MaxRemindDaysBefore, durationDays)
	depletion := start.Add(time.Duration(durationDays) * Day)
	return Timeline{
		StartAt:          start,
		DepletionAt:      depletion,
		ReminderAt:       depletion.Add(-time.Duration(before) * Day),
		DurationDays:     durationDays,
		RemindDaysBefore: before,
	}
}

// Apply copia la línea de tiempo sobre el ítem.
func (t Timeline) Apply(item entity.StockItem) entity.StockItem {
	item.ExpectedDurationDays = t.DurationDays
	item.StartAt = t.StartAt
	item.DepletionAt = t.DepletionAt
	item.ReminderAt = t.ReminderAt
	return item
}

// DaysRemaining = ceil((agotamiento − ahora) / 1 día) con resolución de milisegundos.
// Un día parcial cuenta como día completo; puede ser negativo.
func DaysRemaining(depletionAt, now time.Time) int {
	diff := depletionAt.Sub(now).Milliseconds()
	q := diff / dayMillis
	if diff%dayMillis != 0 && diff > 0 {
		q++
	}
	return int(q)
}

// Classify: <=0 agotado, 1..2 bajo, resto ok.
func Classify(daysRemaining int) Status {
	switch {
	case daysRemaining <= 0:
		return StatusExpired
	case daysRemaining <= LowThresholdDays:
		return StatusLow
	default:
		return StatusOK
	}
}

// Evaluation resultado de evaluar un ítem en un instante.
type Evaluation struct {
	Status        Status
	DaysRemaining int
	Known         bool
}

// Evaluate calcula días restantes y clasificación de un ítem. Sin fecha de agotamiento => unknown.
func Evaluate(item entity.StockItem, now time.Time) Evaluation {
	if !item.HasTimeline() {
		return Evaluation{Status: StatusUnknown}
	}
	d := DaysRemaining(item.DepletionAt, now)
	return Evaluation{Status: Classify(d), DaysRemaining: d, Known: true}
}

// IsLowStock criterio del listado de stock bajo: restantes <= min(2, duración).
func IsLowStock(item entity.StockItem, now time.Time) bool {
	ev := Evaluate(item, now)
	if !ev.Known {
		return false
	}
	return ev.DaysRemaining <= min(MaxRemindDaysBefore, item.ExpectedDurationDays)
}
