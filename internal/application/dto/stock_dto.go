package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/despensa-api/internal/domain/depletion"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// AddStockRequest body para POST /api/stock.
// Se indica duration_days o expires_on (fecha estimada de agotamiento).
type AddStockRequest struct {
	Name         string           `json:"name"`
	Quantity     *decimal.Decimal `json:"quantity"`
	Unit         string           `json:"unit"`
	DurationDays *int             `json:"duration_days,omitempty"`
	ExpiresOn    *time.Time       `json:"expires_on,omitempty"`
	ListID       string           `json:"list_id,omitempty"` // lista a la que se enlaza por nombre
}

// UpdateStockRequest body para PUT /api/stock/:id. Campos nil no se modifican.
type UpdateStockRequest struct {
	Name         *string          `json:"name,omitempty"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	Unit         *string          `json:"unit,omitempty"`
	DurationDays *int             `json:"duration_days,omitempty"`
}

// RestockRequest body opcional para POST /api/stock/:id/restock.
type RestockRequest struct {
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	DurationDays *int             `json:"duration_days,omitempty"`
}

// StockItemDTO ítem con sus valores derivados calculados en el momento de la respuesta.
type StockItemDTO struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Quantity             decimal.Decimal `json:"quantity"`
	Unit                 string          `json:"unit"`
	ExpectedDurationDays int             `json:"expected_duration_days"`
	StartAt              time.Time       `json:"start_at"`
	DepletionAt          *time.Time      `json:"depletion_at,omitempty"`
	ReminderAt           *time.Time      `json:"reminder_at,omitempty"`
	DaysRemaining        *int            `json:"days_remaining,omitempty"` // nil si aún no hay fecha de agotamiento
	Status               string          `json:"status"`                   // ok | low | expired | unknown
	HasReminder          bool            `json:"has_reminder"`
	ImageURL             string          `json:"image_url,omitempty"`
}

// NewStockItemDTO arma el DTO a partir del ítem y su evaluación.
func NewStockItemDTO(item entity.StockItem, ev depletion.Evaluation) StockItemDTO {
	d := StockItemDTO{
		ID:                   item.ID,
		Name:                 item.Name,
		Quantity:             item.Quantity,
		Unit:                 item.Unit,
		ExpectedDurationDays: item.ExpectedDurationDays,
		StartAt:              item.StartAt,
		Status:               string(ev.Status),
		HasReminder:          item.ReminderID != "",
		ImageURL:             item.ImageURL,
	}
	if item.HasTimeline() {
		dep, rem := item.DepletionAt, item.ReminderAt
		d.DepletionAt = &dep
		d.ReminderAt = &rem
	}
	if ev.Known {
		days := ev.DaysRemaining
		d.DaysRemaining = &days
	}
	return d
}

// AddStockResponse resultado del flujo "agregar stock". Los efectos secundarios fallidos
// (recordatorio, enlace a lista) no convierten la respuesta en error.
type AddStockResponse struct {
	Item              StockItemDTO `json:"item"`
	ReminderScheduled bool         `json:"reminder_scheduled"`
	LinkedListItemID  string       `json:"linked_list_item_id,omitempty"`
}

// StockReportDTO datos del PDF de la despensa.
type StockReportDTO struct {
	UserID       string         `json:"user_id"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Items        []StockItemDTO `json:"items"`
	LowCount     int            `json:"low_count"`
	ExpiredCount int            `json:"expired_count"`
}
