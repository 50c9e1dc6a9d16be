package repository

import (
	"context"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// StockRepository persistencia de los ítems de stock de un usuario.
type StockRepository interface {
	// Create persiste el ítem y asigna item.ID.
	Create(ctx context.Context, item *entity.StockItem) error
	Get(ctx context.Context, userID, id string) (*entity.StockItem, error)
	List(ctx context.Context, userID string) ([]entity.StockItem, error)
	// Update reescribe los campos editables y la línea de tiempo.
	Update(ctx context.Context, item *entity.StockItem) error
	SetReminder(ctx context.Context, userID, id string, handle entity.ReminderHandle) error
	SetImage(ctx context.Context, userID, id, url string) error
	Delete(ctx context.Context, userID, id string) error
	Watch(ctx context.Context, userID string, onChange func([]entity.StockItem), onError func(error)) (Unsubscribe, error)
}
