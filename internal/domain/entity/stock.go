package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Límites de duración esperada de un ítem de stock (días).
const (
	MinDurationDays = 1
	MaxDurationDays = 3650
)

// ReminderHandle identificador opaco devuelto por el servicio local de alertas.
// Vacío = sin recordatorio vigente.
type ReminderHandle string

// StockItem representa un consumible en la despensa de un usuario y su línea de tiempo de agotamiento.
// DepletionAt = StartAt + ExpectedDurationDays; ReminderAt = DepletionAt − min(2, días).
type StockItem struct {
	ID                   string
	UserID               string
	Name                 string
	Quantity             decimal.Decimal
	Unit                 string
	ExpectedDurationDays int
	StartAt              time.Time
	DepletionAt          time.Time // cero si el documento aún no la tiene (escritura pendiente)
	ReminderAt           time.Time
	ReminderID           ReminderHandle
	ImageURL             string
}

// HasTimeline indica si el ítem ya tiene instante de agotamiento calculado.
func (s StockItem) HasTimeline() bool {
	return !s.DepletionAt.IsZero()
}
