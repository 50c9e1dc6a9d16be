package docrepo

import (
	"context"
	"sort"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
)

// ListRepository implementa repository.ListRepository.
type ListRepository struct {
	store repository.DocumentStore
}

var _ repository.ListRepository = (*ListRepository)(nil)

// NewListRepository construye el repositorio.
func NewListRepository(store repository.DocumentStore) *ListRepository {
	return &ListRepository{store: store}
}

func (r *ListRepository) CreateList(ctx context.Context, userID string, l *entity.GroceryList) error {
	id, err := r.store.Create(ctx, repository.ListsCollection(userID), listFields(*l))
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

func (r *ListRepository) GetList(ctx context.Context, userID, listID string) (*entity.GroceryList, error) {
	doc, err := r.store.Get(ctx, repository.DocPath(repository.ListsCollection(userID), listID))
	if err != nil {
		return nil, err
	}
	l := decodeList(*doc)
	return &l, nil
}

func (r *ListRepository) Lists(ctx context.Context, userID string) ([]entity.GroceryList, error) {
	docs, err := r.store.List(ctx, repository.ListsCollection(userID))
	if err != nil {
		return nil, err
	}
	return decodeLists(docs), nil
}

func (r *ListRepository) DeleteList(ctx context.Context, userID, listID string) error {
	return r.store.Delete(ctx, repository.DocPath(repository.ListsCollection(userID), listID))
}

func (r *ListRepository) Items(ctx context.Context, userID, listID string) ([]entity.ListItem, error) {
	docs, err := r.store.List(ctx, repository.ListItemsCollection(userID, listID))
	if err != nil {
		return nil, err
	}
	return decodeListItems(listID, docs), nil
}

func (r *ListRepository) GetItem(ctx context.Context, userID, listID, itemID string) (*entity.ListItem, error) {
	doc, err := r.store.Get(ctx, r.itemPath(userID, listID, itemID))
	if err != nil {
		return nil, err
	}
	li := decodeListItem(listID, *doc)
	return &li, nil
}

func (r *ListRepository) CreateItem(ctx context.Context, userID string, item *entity.ListItem) error {
	id, err := r.store.Create(ctx, repository.ListItemsCollection(userID, item.ListID), listItemFields(*item))
	if err != nil {
		return err
	}
	item.ID = id
	return nil
}

func (r *ListRepository) UpdateItem(ctx context.Context, userID string, item *entity.ListItem) error {
	return r.store.Update(ctx, r.itemPath(userID, item.ListID, item.ID), listItemFields(*item))
}

func (r *ListRepository) ApplyMirror(ctx context.Context, userID, listID, itemID string, m entity.ListItemMirror) error {
	return r.store.Update(ctx, r.itemPath(userID, listID, itemID), m.Fields())
}

func (r *ListRepository) DeleteItem(ctx context.Context, userID, listID, itemID string) error {
	return r.store.Delete(ctx, r.itemPath(userID, listID, itemID))
}

func (r *ListRepository) WatchLists(ctx context.Context, userID string, onChange func([]entity.GroceryList), onError func(error)) (repository.Unsubscribe, error) {
	return r.store.Subscribe(ctx, repository.ListsCollection(userID), func(s repository.Snapshot) {
		onChange(decodeLists(s.Docs))
	}, onError)
}

func (r *ListRepository) WatchItems(ctx context.Context, userID, listID string, onChange func([]entity.ListItem), onError func(error)) (repository.Unsubscribe, error) {
	return r.store.Subscribe(ctx, repository.ListItemsCollection(userID, listID), func(s repository.Snapshot) {
		onChange(decodeListItems(listID, s.Docs))
	}, onError)
}

func (r *ListRepository) itemPath(userID, listID, itemID string) string {
	return repository.DocPath(repository.ListItemsCollection(userID, listID), itemID)
}

func decodeLists(docs []repository.Document) []entity.GroceryList {
	out := make([]entity.GroceryList, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeList(d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func decodeListItems(listID string, docs []repository.Document) []entity.ListItem {
	out := make([]entity.ListItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeListItem(listID, d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return entity.NormalizeName(out[i].Name) < entity.NormalizeName(out[j].Name)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
