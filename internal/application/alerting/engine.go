// Package alerting decide qué ítems de stock necesitan una notificación nueva y la persiste
// una sola vez por transición (disparo por flanco: no se crea otra mientras exista una no vista).
package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/application/reminder"
	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/depletion"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

// Engine motor de deduplicación de notificaciones.
type Engine struct {
	notifications repository.NotificationRepository
	stock         repository.StockRepository
	scheduler     *reminder.Scheduler
	log           *logger.Logger
	metrics       ports.Metrics
}

// NewEngine construye el motor.
func NewEngine(
	notifications repository.NotificationRepository,
	stock repository.StockRepository,
	scheduler *reminder.Scheduler,
	log *logger.Logger,
	metrics ports.Metrics,
) *Engine {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Engine{
		notifications: notifications,
		stock:         stock,
		scheduler:     scheduler,
		log:           log.Component("alerting"),
		metrics:       metrics,
	}
}

// Evaluate clasifica el ítem en now y, si está bajo o agotado y no existe una notificación
// no vista para él, crea exactamente una y dispara la alerta inmediata.
// Devuelve la notificación creada, o nil si no hizo falta escribir.
func (e *Engine) Evaluate(ctx context.Context, userID string, item entity.StockItem, now time.Time) (*entity.Notification, error) {
	ev := depletion.Evaluate(item, now)
	if !ev.Status.NeedsAlert() {
		return nil, nil
	}

	existing, err := e.notifications.FindUnseenByStockItem(ctx, userID, item.ID)
	if err != nil {
		return nil, fmt.Errorf("buscar notificación no vista: %w", err)
	}
	if existing != nil {
		e.metrics.NotificationDeduplicated()
		return nil, nil
	}

	// el snapshot puede ir detrás de un borrado en curso: sin ítem no hay alerta
	if gone, err := e.stockGone(ctx, userID, item.ID); err != nil || gone {
		return nil, err
	}

	n := BuildNotification(item, ev, now)
	if err := e.notifications.Create(ctx, userID, &n); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// otra sesión la creó entre la consulta y la escritura
			e.metrics.NotificationDeduplicated()
			e.log.Debug().Str("user_id", userID).Str("stock_item_id", item.ID).Msg("notificación ya creada por otro escritor")
			return nil, nil
		}
		return nil, domain.WrapStoreWrite("crear notificación", err)
	}
	// PurgeStockItem borra el ítem antes que sus notificaciones; si el ítem desapareció entre la
	// lectura y la escritura, el listado de la purga pudo no ver esta notificación.
	if gone, err := e.stockGone(ctx, userID, item.ID); err == nil && gone {
		if err := e.notifications.Delete(ctx, userID, n.ID); err != nil {
			return nil, domain.WrapStoreWrite("borrar notificación huérfana", err)
		}
		e.log.Debug().Str("user_id", userID).Str("stock_item_id", item.ID).Msg("ítem borrado durante la evaluación; notificación descartada")
		return nil, nil
	}
	e.metrics.NotificationCreated(n.Kind())
	e.log.Info().Str("user_id", userID).Str("stock_item_id", item.ID).
		Str("kind", string(n.Kind())).Int("days_remaining", n.DaysRemaining).Msg("notificación creada")

	e.scheduler.FireNow(ctx, reminder.Request{
		UserID:      userID,
		StockItemID: item.ID,
		Label:       item.Name,
		Urgent:      n.IsExpired,
	})
	return &n, nil
}

// BuildNotification arma el registro para una evaluación que requiere alerta.
func BuildNotification(item entity.StockItem, ev depletion.Evaluation, now time.Time) entity.Notification {
	expired := ev.Status == depletion.StatusExpired
	return entity.Notification{
		StockItemID:   item.ID,
		ItemName:      item.Name,
		Message:       Message(item.Name, ev.DaysRemaining, expired),
		DaysRemaining: max(0, ev.DaysRemaining),
		IsExpired:     expired,
		Seen:          false,
		CreatedAt:     now,
	}
}

// Message texto de la notificación.
func Message(name string, daysRemaining int, expired bool) string {
	if expired {
		return fmt.Sprintf("«%s» se agotó. Es hora de reabastecer.", name)
	}
	if daysRemaining == 1 {
		return fmt.Sprintf("A «%s» le queda 1 día.", name)
	}
	return fmt.Sprintf("A «%s» le quedan %d días.", name, max(0, daysRemaining))
}

// Dismiss marca la notificación como atendida: "visto" significa "ya me encargué", así que
// cancela el recordatorio del ítem, borra el ítem de stock y todas sus notificaciones.
func (e *Engine) Dismiss(ctx context.Context, userID, notificationID string) error {
	n, err := e.notifications.Get(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if n.StockItemID == "" {
		return domain.WrapStoreWrite("borrar notificación", e.notifications.Delete(ctx, userID, n.ID))
	}

	item, err := e.stock.Get(ctx, userID, n.StockItemID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// referencia débil: el ítem ya no existe, solo quedan sus notificaciones
		item = &entity.StockItem{ID: n.StockItemID, UserID: userID}
	case err != nil:
		return err
	}
	if err := e.PurgeStockItem(ctx, userID, *item); err != nil {
		return err
	}
	// por si la notificación apuntaba a otro ID o el listado no la devolvió
	return domain.WrapStoreWrite("borrar notificación", e.notifications.Delete(ctx, userID, n.ID))
}

// DeleteNotification borra solo la notificación; el stock no se toca.
func (e *Engine) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	return domain.WrapStoreWrite("borrar notificación", e.notifications.Delete(ctx, userID, notificationID))
}

// PurgeStockItem cancela el recordatorio del ítem, borra el ítem y luego sus notificaciones.
func (e *Engine) PurgeStockItem(ctx context.Context, userID string, item entity.StockItem) error {
	e.scheduler.Cancel(ctx, item.ReminderID)
	if tracked, ok := e.scheduler.Tracked(userID, item.ID); ok {
		e.scheduler.Cancel(ctx, tracked)
	}
	e.scheduler.Forget(userID, item.ID)

	// primero el ítem: una evaluación concurrente que ya no lo encuentre no crea notificaciones nuevas
	if err := e.stock.Delete(ctx, userID, item.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.WrapStoreWrite("borrar stock", err)
	}
	if err := e.deleteNotificationsOf(ctx, userID, item.ID, false); err != nil {
		return err
	}
	e.log.Info().Str("user_id", userID).Str("stock_item_id", item.ID).Msg("ítem de stock eliminado")
	return nil
}

// Resolve borra las notificaciones no vistas de un ítem que volvió a estar ok (reabastecido),
// de modo que la próxima transición a bajo/agotado vuelva a alertar.
func (e *Engine) Resolve(ctx context.Context, userID, stockItemID string) error {
	return e.deleteNotificationsOf(ctx, userID, stockItemID, true)
}

// stockGone indica si el ítem ya no existe en el almacén.
func (e *Engine) stockGone(ctx context.Context, userID, stockItemID string) (bool, error) {
	_, err := e.stock.Get(ctx, userID, stockItemID)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, domain.ErrNotFound):
		return true, nil
	}
	return false, fmt.Errorf("leer ítem de stock: %w", err)
}

func (e *Engine) deleteNotificationsOf(ctx context.Context, userID, stockItemID string, unseenOnly bool) error {
	list, err := e.notifications.ListByStockItem(ctx, userID, stockItemID)
	if err != nil {
		return fmt.Errorf("listar notificaciones del ítem: %w", err)
	}
	for _, n := range list {
		if unseenOnly && n.Seen {
			continue
		}
		if err := e.notifications.Delete(ctx, userID, n.ID); err != nil {
			return domain.WrapStoreWrite("borrar notificación", err)
		}
	}
	return nil
}
