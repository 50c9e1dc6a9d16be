package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// GroceryList lista de compras del usuario.
type GroceryList struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// ListItem ítem de una lista de compras. Puede enlazarse a un StockItem por nombre.
type ListItem struct {
	ID                   string
	ListID               string
	Name                 string
	Quantity             decimal.Decimal
	Unit                 string
	ExpectedDurationDays int
	CompletedCount       int
	IsLiked              bool
	StockAdded           bool
}

// ListItemMirror campos de un ListItem que reflejan el StockItem agregado desde él.
type ListItemMirror struct {
	StockAdded           bool
	Quantity             decimal.Decimal
	Unit                 string
	ExpectedDurationDays int
}

// MirrorStock define qué campos del stock se copian al ítem de lista enlazado.
func MirrorStock(item StockItem) ListItemMirror {
	return ListItemMirror{
		StockAdded:           true,
		Quantity:             item.Quantity,
		Unit:                 item.Unit,
		ExpectedDurationDays: item.ExpectedDurationDays,
	}
}

// Fields devuelve los campos a escribir en el documento del ítem de lista (nombres del almacén).
func (m ListItemMirror) Fields() map[string]any {
	return map[string]any{
		"stockAdded":           m.StockAdded,
		"quantity":             m.Quantity.String(),
		"unit":                 m.Unit,
		"expectedDurationDays": m.ExpectedDurationDays,
	}
}

// Apply copia el espejo sobre un ListItem.
func (m ListItemMirror) Apply(li ListItem) ListItem {
	li.StockAdded = m.StockAdded
	li.Quantity = m.Quantity
	li.Unit = m.Unit
	li.ExpectedDurationDays = m.ExpectedDurationDays
	return li
}

// NewListItemFromStock crea un ítem de lista nuevo a partir de un stock recién agregado.
func NewListItemFromStock(listID string, item StockItem) ListItem {
	return MirrorStock(item).Apply(ListItem{
		ListID: listID,
		Name:   item.Name,
	})
}

// NormalizeName normaliza un nombre para comparación: sin espacios extremos y con case folding Unicode.
// cases.Caser no es seguro entre goroutines, por eso se crea uno por llamada.
func NormalizeName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// SameName compara dos nombres sin distinguir mayúsculas ("Leche" == "leche", "ÑAME" == "ñame").
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}
