// Package docrepo implementa los repositorios tipados sobre repository.DocumentStore,
// con funciones de mapeo explícitas entre entidades y documentos.
package docrepo

import (
	"context"
	"sort"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
)

// StockRepository implementa repository.StockRepository.
type StockRepository struct {
	store repository.DocumentStore
}

var _ repository.StockRepository = (*StockRepository)(nil)

// NewStockRepository construye el repositorio.
func NewStockRepository(store repository.DocumentStore) *StockRepository {
	return &StockRepository{store: store}
}

func (r *StockRepository) Create(ctx context.Context, item *entity.StockItem) error {
	id, err := r.store.Create(ctx, repository.StockCollection(item.UserID), stockFields(*item))
	if err != nil {
		return err
	}
	item.ID = id
	return nil
}

func (r *StockRepository) Get(ctx context.Context, userID, id string) (*entity.StockItem, error) {
	doc, err := r.store.Get(ctx, r.path(userID, id))
	if err != nil {
		return nil, err
	}
	item := decodeStock(userID, *doc)
	return &item, nil
}

func (r *StockRepository) List(ctx context.Context, userID string) ([]entity.StockItem, error) {
	docs, err := r.store.List(ctx, repository.StockCollection(userID))
	if err != nil {
		return nil, err
	}
	return decodeStockDocs(userID, docs), nil
}

func (r *StockRepository) Update(ctx context.Context, item *entity.StockItem) error {
	return r.store.Update(ctx, r.path(item.UserID, item.ID), stockFields(*item))
}

func (r *StockRepository) SetReminder(ctx context.Context, userID, id string, handle entity.ReminderHandle) error {
	return r.store.Update(ctx, r.path(userID, id), map[string]any{fReminderID: handleValue(handle)})
}

func (r *StockRepository) SetImage(ctx context.Context, userID, id, url string) error {
	return r.store.Update(ctx, r.path(userID, id), map[string]any{fImageURL: url})
}

func (r *StockRepository) Delete(ctx context.Context, userID, id string) error {
	return r.store.Delete(ctx, r.path(userID, id))
}

func (r *StockRepository) Watch(ctx context.Context, userID string, onChange func([]entity.StockItem), onError func(error)) (repository.Unsubscribe, error) {
	return r.store.Subscribe(ctx, repository.StockCollection(userID), func(s repository.Snapshot) {
		onChange(decodeStockDocs(userID, s.Docs))
	}, onError)
}

func (r *StockRepository) path(userID, id string) string {
	return repository.DocPath(repository.StockCollection(userID), id)
}

// decodeStockDocs ordena por fecha de agotamiento (las pendientes al final).
func decodeStockDocs(userID string, docs []repository.Document) []entity.StockItem {
	items := make([]entity.StockItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, decodeStock(userID, d))
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.HasTimeline() != b.HasTimeline() {
			return a.HasTimeline()
		}
		if !a.DepletionAt.Equal(b.DepletionAt) {
			return a.DepletionAt.Before(b.DepletionAt)
		}
		return a.ID < b.ID
	})
	return items
}
