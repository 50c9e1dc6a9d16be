package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// CreateListRequest body para POST /api/lists.
type CreateListRequest struct {
	Name string `json:"name"`
}

// ListItemRequest body para crear (POST) o actualizar (PATCH) un ítem de lista.
// En PATCH los campos nil, y un nombre vacío, conservan el valor guardado.
type ListItemRequest struct {
	Name                 string           `json:"name"`
	Quantity             *decimal.Decimal `json:"quantity,omitempty"`
	Unit                 *string          `json:"unit,omitempty"`
	ExpectedDurationDays *int             `json:"expected_duration_days,omitempty"`
	CompletedCount       *int             `json:"completed_count,omitempty"`
	IsLiked              *bool            `json:"is_liked,omitempty"`
}

// GroceryListDTO lista con la cantidad de ítems.
type GroceryListDTO struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	ItemCount int           `json:"item_count"`
	Items     []ListItemDTO `json:"items,omitempty"`
}

// ListItemDTO ítem de lista de compras.
type ListItemDTO struct {
	ID                   string          `json:"id"`
	ListID               string          `json:"list_id"`
	Name                 string          `json:"name"`
	Quantity             decimal.Decimal `json:"quantity"`
	Unit                 string          `json:"unit"`
	ExpectedDurationDays int             `json:"expected_duration_days"`
	CompletedCount       int             `json:"completed_count"`
	IsLiked              bool            `json:"is_liked"`
	StockAdded           bool            `json:"stock_added"`
}

// NewListItemDTO mapea la entidad.
func NewListItemDTO(li entity.ListItem) ListItemDTO {
	return ListItemDTO{
		ID:                   li.ID,
		ListID:               li.ListID,
		Name:                 li.Name,
		Quantity:             li.Quantity,
		Unit:                 li.Unit,
		ExpectedDurationDays: li.ExpectedDurationDays,
		CompletedCount:       li.CompletedCount,
		IsLiked:              li.IsLiked,
		StockAdded:           li.StockAdded,
	}
}

// NewGroceryListDTO mapea la lista; items nil deja ItemCount en 0.
func NewGroceryListDTO(l entity.GroceryList, items []entity.ListItem) GroceryListDTO {
	d := GroceryListDTO{
		ID:        l.ID,
		Name:      l.Name,
		CreatedAt: l.CreatedAt,
		ItemCount: len(items),
	}
	if len(items) > 0 {
		d.Items = make([]ListItemDTO, 0, len(items))
		for _, li := range items {
			d.Items = append(d.Items, NewListItemDTO(li))
		}
	}
	return d
}
