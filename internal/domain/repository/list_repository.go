package repository

import (
	"context"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// ListRepository persistencia de listas de compras y sus ítems.
type ListRepository interface {
	CreateList(ctx context.Context, userID string, l *entity.GroceryList) error
	GetList(ctx context.Context, userID, listID string) (*entity.GroceryList, error)
	Lists(ctx context.Context, userID string) ([]entity.GroceryList, error)
	DeleteList(ctx context.Context, userID, listID string) error

	Items(ctx context.Context, userID, listID string) ([]entity.ListItem, error)
	GetItem(ctx context.Context, userID, listID, itemID string) (*entity.ListItem, error)
	CreateItem(ctx context.Context, userID string, item *entity.ListItem) error
	UpdateItem(ctx context.Context, userID string, item *entity.ListItem) error
	// ApplyMirror escribe solo los campos espejo del stock enlazado.
	ApplyMirror(ctx context.Context, userID, listID, itemID string, m entity.ListItemMirror) error
	DeleteItem(ctx context.Context, userID, listID, itemID string) error

	WatchLists(ctx context.Context, userID string, onChange func([]entity.GroceryList), onError func(error)) (Unsubscribe, error)
	WatchItems(ctx context.Context, userID, listID string, onChange func([]entity.ListItem), onError func(error)) (Unsubscribe, error)
}
