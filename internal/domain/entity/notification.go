package entity

import "time"

// Notification alerta persistida de stock bajo o agotado.
// StockItemID es una referencia débil: el ítem puede haber sido borrado.
type Notification struct {
	ID            string
	StockItemID   string
	ItemName      string // copia desnormalizada del nombre del ítem
	Message       string
	DaysRemaining int // >= 0
	IsExpired     bool
	Seen          bool
	CreatedAt     time.Time
}

// Kind devuelve el tipo de alerta que representa.
func (n Notification) Kind() AlertKind {
	if n.IsExpired {
		return AlertExpired
	}
	return AlertLow
}
