package docrepo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/despensa-api/internal/domain/depletion"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
	"github.com/jhoicas/despensa-api/internal/infrastructure/docrepo"
	"github.com/jhoicas/despensa-api/internal/infrastructure/memstore"
)

var start = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func newStock(name string, days int) *entity.StockItem {
	item := depletion.NewTimeline(start, days).Apply(entity.StockItem{
		UserID:   "u1",
		Name:     name,
		Quantity: decimal.RequireFromString("2.5"),
		Unit:     "kg",
	})
	return &item
}

func TestStockRepository_CrearLeerYActualizar(t *testing.T) {
	ctx := context.Background()
	repo := docrepo.NewStockRepository(memstore.New())
	item := newStock("Arroz", 10)

	require.NoError(t, repo.Create(ctx, item))
	require.NotEmpty(t, item.ID)

	got, err := repo.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Arroz", got.Name)
	assert.True(t, got.Quantity.Equal(item.Quantity))
	assert.Equal(t, item.DepletionAt, got.DepletionAt)
	assert.Empty(t, got.ReminderID)

	require.NoError(t, repo.SetReminder(ctx, "u1", item.ID, "h-1"))
	got, err = repo.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReminderHandle("h-1"), got.ReminderID)

	require.NoError(t, repo.SetReminder(ctx, "u1", item.ID, ""))
	got, _ = repo.Get(ctx, "u1", item.ID)
	assert.Empty(t, got.ReminderID)
}

func TestStockRepository_CantidadConservaPrecision(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	repo := docrepo.NewStockRepository(store)
	item := newStock("Azafrán", 10)
	item.Quantity = decimal.RequireFromString("0.1234567890123456789")

	require.NoError(t, repo.Create(ctx, item))

	doc, err := store.Get(ctx, repository.DocPath(repository.StockCollection("u1"), item.ID))
	require.NoError(t, err)
	assert.Equal(t, "0.1234567890123456789", doc.Data["quantity"], "la cantidad se guarda como texto decimal")

	got, err := repo.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(item.Quantity), "sin pérdida por float64: %s", got.Quantity)
}

func TestStockRepository_ListOrdenaPorAgotamiento(t *testing.T) {
	ctx := context.Background()
	repo := docrepo.NewStockRepository(memstore.New())
	require.NoError(t, repo.Create(ctx, newStock("Lejano", 30)))
	require.NoError(t, repo.Create(ctx, newStock("Cercano", 2)))
	require.NoError(t, repo.Create(ctx, &entity.StockItem{UserID: "u1", Name: "Pendiente"}))

	items, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Cercano", items[0].Name)
	assert.Equal(t, "Lejano", items[1].Name)
	assert.Equal(t, "Pendiente", items[2].Name)
}

func TestNotificationRepository_BuscaNoVistaPorItem(t *testing.T) {
	ctx := context.Background()
	repo := docrepo.NewNotificationRepository(memstore.New())

	seen := &entity.Notification{StockItemID: "s1", Seen: true, CreatedAt: start}
	require.NoError(t, repo.Create(ctx, "u1", seen))

	n, err := repo.FindUnseenByStockItem(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Nil(t, n)

	unseen := &entity.Notification{StockItemID: "s1", DaysRemaining: 2, CreatedAt: start.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, "u1", unseen))

	n, err = repo.FindUnseenByStockItem(ctx, "u1", "s1")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, unseen.ID, n.ID)
	assert.Equal(t, 2, n.DaysRemaining)

	all, err := repo.ListByStockItem(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, unseen.ID, all[0].ID, "más reciente primero")
}

func TestListRepository_ApplyMirrorSoloTocaCamposEspejo(t *testing.T) {
	ctx := context.Background()
	repo := docrepo.NewListRepository(memstore.New())
	list := &entity.GroceryList{Name: "Semanal", CreatedAt: start}
	require.NoError(t, repo.CreateList(ctx, "u1", list))

	li := &entity.ListItem{ListID: list.ID, Name: "Leche", CompletedCount: 3, IsLiked: true, Quantity: decimal.NewFromInt(1), Unit: "l"}
	require.NoError(t, repo.CreateItem(ctx, "u1", li))

	stock := newStock("leche", 7)
	require.NoError(t, repo.ApplyMirror(ctx, "u1", list.ID, li.ID, entity.MirrorStock(*stock)))

	got, err := repo.GetItem(ctx, "u1", list.ID, li.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leche", got.Name, "el nombre no es espejo")
	assert.True(t, got.StockAdded)
	assert.Equal(t, "kg", got.Unit)
	assert.Equal(t, 7, got.ExpectedDurationDays)
	assert.Equal(t, 3, got.CompletedCount)
	assert.True(t, got.IsLiked)
}

// Documentos escritos por otro backend (JSONB) llegan con números float64 y fechas string.
func TestDecode_ToleraDocumentosJSON(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	raw := `{"name":"Yerba","quantity":"1.5","unit":"kg","expectedDurationDays":4,
		"startDate":"2024-05-01T08:00:00Z","depletionDate":"2024-05-05T08:00:00Z",
		"reminderScheduledAt":"2024-05-03T08:00:00Z","reminderId":null}`
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	id, err := store.Create(ctx, repository.StockCollection("u1"), data)
	require.NoError(t, err)

	got, err := docrepo.NewStockRepository(store).Get(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, 4, got.ExpectedDurationDays)
	assert.True(t, got.Quantity.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, start.Add(4*depletion.Day), got.DepletionAt)
	assert.Empty(t, got.ReminderID)
}
