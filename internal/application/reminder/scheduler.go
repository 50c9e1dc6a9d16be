// Package reminder envuelve el servicio local de alertas: calcula el instante efectivo,
// programa, cancela y reemplaza los handles de recordatorio de cada ítem de stock.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

// DefaultMinLead anticipación mínima cuando el instante pedido no está en el futuro.
const DefaultMinLead = 5 * time.Minute

// Request recordatorio a programar para un ítem.
type Request struct {
	UserID      string
	StockItemID string
	Label       string // nombre del ítem, va en el texto de la alerta
	RemindAt    time.Time
	Urgent      bool // true = agotado; false = stock bajo
}

// Scheduler programa recordatorios y recuerda el handle vigente por (usuario, ítem).
// Ningún fallo del servicio de alertas se propaga al llamador.
type Scheduler struct {
	alerts  ports.LocalAlertService
	log     *logger.Logger
	metrics ports.Metrics
	minLead time.Duration
	now     func() time.Time

	mu      sync.Mutex
	tracked map[trackKey]entity.ReminderHandle
}

type trackKey struct {
	userID string
	itemID string
}

// NewScheduler construye el programador. minLead <= 0 usa DefaultMinLead.
func NewScheduler(alerts ports.LocalAlertService, log *logger.Logger, metrics ports.Metrics, minLead time.Duration) *Scheduler {
	if minLead <= 0 {
		minLead = DefaultMinLead
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Scheduler{
		alerts:  alerts,
		log:     log.Component("reminder"),
		metrics: metrics,
		minLead: minLead,
		now:     time.Now,
		tracked: make(map[trackKey]entity.ReminderHandle),
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// EffectiveTime devuelve remindAt si está estrictamente en el futuro; si no, ahora + minLead.
func (s *Scheduler) EffectiveTime(remindAt time.Time) time.Time {
	now := s.now()
	if remindAt.After(now) {
		return remindAt
	}
	return now.Add(s.minLead)
}

// Schedule programa el recordatorio. Devuelve ("", false) si el servicio falla.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (entity.ReminderHandle, bool) {
	return s.schedule(ctx, req, s.EffectiveTime(req.RemindAt), true)
}

// FireNow entrega la alerta de inmediato (sin la anticipación mínima). El handle no reemplaza
// al recordatorio registrado del ítem.
func (s *Scheduler) FireNow(ctx context.Context, req Request) (entity.ReminderHandle, bool) {
	return s.schedule(ctx, req, s.now(), false)
}

func (s *Scheduler) schedule(ctx context.Context, req Request, at time.Time, track bool) (entity.ReminderHandle, bool) {
	handle, err := s.alerts.Schedule(ctx, Content(req), at)
	if err != nil {
		s.metrics.ReminderFailed("schedule")
		s.log.Warn().Err(&domain.SchedulerError{Op: "schedule", Err: err}).
			Str("user_id", req.UserID).
			Str("stock_item_id", req.StockItemID).
			Time("at", at).
			Msg("no se pudo programar el recordatorio")
		return "", false
	}
	h := entity.ReminderHandle(handle)
	if track && req.StockItemID != "" {
		s.mu.Lock()
		s.tracked[trackKey{req.UserID, req.StockItemID}] = h
		s.mu.Unlock()
	}
	s.metrics.ReminderScheduled(req.Urgent)
	s.log.Debug().Str("user_id", req.UserID).Str("stock_item_id", req.StockItemID).
		Str("handle", handle).Time("at", at).Bool("urgent", req.Urgent).Msg("recordatorio programado")
	return h, true
}

// Cancel cancela un handle. Errores (handle ya disparado o desconocido) se registran y se descartan.
func (s *Scheduler) Cancel(ctx context.Context, handle entity.ReminderHandle) {
	if handle == "" {
		return
	}
	if err := s.alerts.Cancel(ctx, string(handle)); err != nil {
		s.metrics.ReminderFailed("cancel")
		s.log.Debug().Err(&domain.SchedulerError{Op: "cancel", Err: err}).
			Str("handle", string(handle)).Msg("cancelación de recordatorio ignorada")
	}
	s.untrackHandle(handle)
}

// Replace cancela el handle anterior del ítem (el guardado y el registrado en memoria)
// y recién después programa el nuevo.
func (s *Scheduler) Replace(ctx context.Context, old entity.ReminderHandle, req Request) (entity.ReminderHandle, bool) {
	s.Cancel(ctx, old)
	if tracked, ok := s.Tracked(req.UserID, req.StockItemID); ok && tracked != old {
		s.Cancel(ctx, tracked)
	}
	return s.Schedule(ctx, req)
}

// Tracked devuelve el handle vigente registrado para el ítem.
func (s *Scheduler) Tracked(userID, itemID string) (entity.ReminderHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.tracked[trackKey{userID, itemID}]
	return h, ok
}

// Forget olvida el handle registrado del ítem sin cancelarlo.
func (s *Scheduler) Forget(userID, itemID string) {
	s.mu.Lock()
	delete(s.tracked, trackKey{userID, itemID})
	s.mu.Unlock()
}

func (s *Scheduler) untrackHandle(h entity.ReminderHandle) {
	s.mu.Lock()
	for k, v := range s.tracked {
		if v == h {
			delete(s.tracked, k)
		}
	}
	s.mu.Unlock()
}

// Content arma el texto y la prioridad de la alerta según sea urgente (agotado) o stock bajo.
func Content(req Request) entity.AlertContent {
	c := entity.AlertContent{
		UserID:      req.UserID,
		StockItemID: req.StockItemID,
		Urgent:      req.Urgent,
		Data: map[string]string{
			"stockItemId": req.StockItemID,
			"kind":        string(entity.AlertLow),
		},
	}
	if req.Urgent {
		c.Title = "Stock agotado"
		c.Body = fmt.Sprintf("«%s» se agotó. Es hora de reabastecer.", req.Label)
		c.Priority = entity.PriorityHigh
		c.Data["kind"] = string(entity.AlertExpired)
		return c
	}
	c.Title = "Stock bajo"
	c.Body = fmt.Sprintf("«%s» está por agotarse. Revisa tu despensa.", req.Label)
	c.Priority = entity.PriorityNormal
	return c
}
