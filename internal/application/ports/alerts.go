package ports

import (
	"context"
	"time"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// LocalAlertService puerto del servicio de alertas programadas (equivalente a las notificaciones
// locales del dispositivo). Programar en un instante pasado dispara de inmediato.
type LocalAlertService interface {
	// Schedule programa una alerta única para at y devuelve un handle opaco.
	Schedule(ctx context.Context, content entity.AlertContent, at time.Time) (string, error)
	// Cancel cancela una alerta pendiente. Handles desconocidos o ya disparados pueden devolver error.
	Cancel(ctx context.Context, handle string) error
}

// AlertDeliverer entrega una alerta disparada al dispositivo del usuario (FCM, log...).
type AlertDeliverer interface {
	Deliver(ctx context.Context, content entity.AlertContent) error
}

// UserNotifier retroalimentación al usuario (toast / confirmación). Fire-and-forget: sin retorno.
type UserNotifier interface {
	Notify(ctx context.Context, userID string, kind entity.NoticeKind, title, detail string)
}
