// Package metrics implementa ports.Metrics con Prometheus sobre un registro propio.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

const namespace = "despensa"

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus contadores del motor de stock.
type Prometheus struct {
	registry *prometheus.Registry

	notificationsCreated *prometheus.CounterVec
	notificationsDeduped prometheus.Counter
	remindersScheduled   *prometheus.CounterVec
	remindersFailed      *prometheus.CounterVec
	subscriptionsFailed  *prometheus.CounterVec
	sessionsActive       prometheus.Gauge
}

// New registra los colectores (más los de proceso y runtime de Go).
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		notificationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_created_total",
			Help: "Notificaciones de stock creadas, por tipo",
		}, []string{"kind"}),
		notificationsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_deduplicated_total",
			Help: "Evaluaciones suprimidas por existir una notificación no vista",
		}),
		remindersScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "reminders_scheduled_total",
			Help: "Recordatorios programados",
		}, []string{"urgent"}),
		remindersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "reminders_failed_total",
			Help: "Fallos del servicio de alertas, por operación",
		}, []string{"op"}),
		subscriptionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "subscriptions_failed_total",
			Help: "Suscripciones en vivo interrumpidas, por tipo de colección",
		}, []string{"collection"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sessions_active",
			Help: "Sesiones de sincronización abiertas",
		}),
	}
	p.registry.MustRegister(
		p.notificationsCreated,
		p.notificationsDeduped,
		p.remindersScheduled,
		p.remindersFailed,
		p.subscriptionsFailed,
		p.sessionsActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry registro usado (tests).
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler expone el registro en formato de texto de Prometheus.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *Prometheus) NotificationCreated(kind entity.AlertKind) {
	p.notificationsCreated.WithLabelValues(string(kind)).Inc()
}

func (p *Prometheus) NotificationDeduplicated() { p.notificationsDeduped.Inc() }

func (p *Prometheus) ReminderScheduled(urgent bool) {
	label := "false"
	if urgent {
		label = "true"
	}
	p.remindersScheduled.WithLabelValues(label).Inc()
}

func (p *Prometheus) ReminderFailed(op string) { p.remindersFailed.WithLabelValues(op).Inc() }

// SubscriptionFailed etiqueta por el último segmento de la ruta (stock, lists, items...),
// nunca por la ruta completa, que incluye el usuario.
func (p *Prometheus) SubscriptionFailed(collection string) {
	p.subscriptionsFailed.WithLabelValues(CollectionKind(collection)).Inc()
}

func (p *Prometheus) SessionsActive(n int) { p.sessionsActive.Set(float64(n)) }

// CollectionKind último segmento de una ruta de colección.
func CollectionKind(collection string) string {
	if i := strings.LastIndexByte(collection, '/'); i >= 0 {
		return collection[i+1:]
	}
	return collection
}
