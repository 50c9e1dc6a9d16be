package alerting

import (
	"context"

	"github.com/jhoicas/despensa-api/internal/application/dto"
	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
)

// Inbox casos de uso de la bandeja de notificaciones del usuario.
type Inbox struct {
	repo     repository.NotificationRepository
	engine   *Engine
	notifier ports.UserNotifier
}

// NewInbox construye la bandeja.
func NewInbox(repo repository.NotificationRepository, engine *Engine, notifier ports.UserNotifier) *Inbox {
	return &Inbox{repo: repo, engine: engine, notifier: notifier}
}

// List devuelve las notificaciones, más recientes primero.
func (b *Inbox) List(ctx context.Context, userID string) ([]dto.NotificationDTO, error) {
	list, err := b.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificationDTO, 0, len(list))
	for _, n := range list {
		out = append(out, dto.NewNotificationDTO(n))
	}
	return out, nil
}

// Dismiss marca como atendida: borra la notificación y el ítem de stock asociado.
func (b *Inbox) Dismiss(ctx context.Context, userID, id string) error {
	if err := b.engine.Dismiss(ctx, userID, id); err != nil {
		b.notifier.Notify(ctx, userID, entity.NoticeError, "No se pudo marcar como vista", "Intenta de nuevo.")
		return err
	}
	b.notifier.Notify(ctx, userID, entity.NoticeSuccess, "Notificación atendida", "Se eliminó el ítem de tu despensa.")
	return nil
}

// Delete borra solo la notificación.
func (b *Inbox) Delete(ctx context.Context, userID, id string) error {
	if err := b.engine.DeleteNotification(ctx, userID, id); err != nil {
		b.notifier.Notify(ctx, userID, entity.NoticeError, "No se pudo eliminar la notificación", "Intenta de nuevo.")
		return err
	}
	b.notifier.Notify(ctx, userID, entity.NoticeInfo, "Notificación eliminada", "")
	return nil
}
