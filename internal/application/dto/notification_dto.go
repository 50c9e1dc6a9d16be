package dto

import (
	"time"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// NotificationDTO notificación de stock bajo o agotado.
type NotificationDTO struct {
	ID            string    `json:"id"`
	StockItemID   string    `json:"stock_item_id"`
	ItemName      string    `json:"item_name"`
	Message       string    `json:"message"`
	DaysRemaining int       `json:"days_remaining"`
	IsExpired     bool      `json:"is_expired"`
	Seen          bool      `json:"seen"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewNotificationDTO mapea la entidad.
func NewNotificationDTO(n entity.Notification) NotificationDTO {
	return NotificationDTO{
		ID:            n.ID,
		StockItemID:   n.StockItemID,
		ItemName:      n.ItemName,
		Message:       n.Message,
		DaysRemaining: n.DaysRemaining,
		IsExpired:     n.IsExpired,
		Seen:          n.Seen,
		CreatedAt:     n.CreatedAt,
	}
}
