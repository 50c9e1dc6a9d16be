package ports

import "github.com/jhoicas/despensa-api/internal/domain/entity"

// Metrics contadores del motor de stock. NopMetrics si las métricas están deshabilitadas.
type Metrics interface {
	NotificationCreated(kind entity.AlertKind)
	NotificationDeduplicated()
	ReminderScheduled(urgent bool)
	ReminderFailed(op string)
	SubscriptionFailed(collection string)
	SessionsActive(n int)
}

// NopMetrics implementación vacía de Metrics.
type NopMetrics struct{}

var _ Metrics = NopMetrics{}

func (NopMetrics) NotificationCreated(entity.AlertKind) {}
func (NopMetrics) NotificationDeduplicated()            {}
func (NopMetrics) ReminderScheduled(bool)               {}
func (NopMetrics) ReminderFailed(string)                {}
func (NopMetrics) SubscriptionFailed(string)            {}
func (NopMetrics) SessionsActive(int)                   {}
