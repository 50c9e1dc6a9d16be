package docrepo

import (
	"context"
	"sort"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
)

// NotificationRepository implementa repository.NotificationRepository.
type NotificationRepository struct {
	store repository.DocumentStore
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

// NewNotificationRepository construye el repositorio.
func NewNotificationRepository(store repository.DocumentStore) *NotificationRepository {
	return &NotificationRepository{store: store}
}

func (r *NotificationRepository) Create(ctx context.Context, userID string, n *entity.Notification) error {
	id, err := r.store.Create(ctx, repository.NotificationsCollection(userID), notificationFields(*n))
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

func (r *NotificationRepository) Get(ctx context.Context, userID, id string) (*entity.Notification, error) {
	doc, err := r.store.Get(ctx, r.path(userID, id))
	if err != nil {
		return nil, err
	}
	n := decodeNotification(*doc)
	return &n, nil
}

func (r *NotificationRepository) FindUnseenByStockItem(ctx context.Context, userID, stockItemID string) (*entity.Notification, error) {
	docs, err := r.store.List(ctx, repository.NotificationsCollection(userID),
		repository.Where(fStockItemID, stockItemID),
		repository.Where(fSeen, false),
	)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	n := decodeNotifications(docs)[0]
	return &n, nil
}

func (r *NotificationRepository) ListByStockItem(ctx context.Context, userID, stockItemID string) ([]entity.Notification, error) {
	docs, err := r.store.List(ctx, repository.NotificationsCollection(userID), repository.Where(fStockItemID, stockItemID))
	if err != nil {
		return nil, err
	}
	return decodeNotifications(docs), nil
}

func (r *NotificationRepository) List(ctx context.Context, userID string) ([]entity.Notification, error) {
	docs, err := r.store.List(ctx, repository.NotificationsCollection(userID))
	if err != nil {
		return nil, err
	}
	return decodeNotifications(docs), nil
}

func (r *NotificationRepository) MarkSeen(ctx context.Context, userID, id string) error {
	return r.store.Update(ctx, r.path(userID, id), map[string]any{fSeen: true})
}

func (r *NotificationRepository) Delete(ctx context.Context, userID, id string) error {
	return r.store.Delete(ctx, r.path(userID, id))
}

func (r *NotificationRepository) Watch(ctx context.Context, userID string, onChange func([]entity.Notification), onError func(error)) (repository.Unsubscribe, error) {
	return r.store.Subscribe(ctx, repository.NotificationsCollection(userID), func(s repository.Snapshot) {
		onChange(decodeNotifications(s.Docs))
	}, onError)
}

func (r *NotificationRepository) path(userID, id string) string {
	return repository.DocPath(repository.NotificationsCollection(userID), id)
}

// decodeNotifications ordena de la más reciente a la más antigua.
func decodeNotifications(docs []repository.Document) []entity.Notification {
	out := make([]entity.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeNotification(d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
