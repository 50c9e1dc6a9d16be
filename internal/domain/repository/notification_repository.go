package repository

import (
	"context"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// NotificationRepository persistencia de las notificaciones de un usuario.
type NotificationRepository interface {
	// Create persiste y asigna n.ID. Un almacén con índice único puede devolver domain.ErrDuplicate
	// si ya existe una no vista para el mismo ítem.
	Create(ctx context.Context, userID string, n *entity.Notification) error
	Get(ctx context.Context, userID, id string) (*entity.Notification, error)
	// FindUnseenByStockItem devuelve la notificación no vista del ítem, o nil si no hay.
	FindUnseenByStockItem(ctx context.Context, userID, stockItemID string) (*entity.Notification, error)
	ListByStockItem(ctx context.Context, userID, stockItemID string) ([]entity.Notification, error)
	List(ctx context.Context, userID string) ([]entity.Notification, error)
	MarkSeen(ctx context.Context, userID, id string) error
	Delete(ctx context.Context, userID, id string) error
	Watch(ctx context.Context, userID string, onChange func([]entity.Notification), onError func(error)) (Unsubscribe, error)
}
