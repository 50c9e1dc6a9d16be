// Package alerts implementa el servicio local de alertas programadas sobre temporizadores en
// proceso. Al dispararse, cada alerta se entrega por un ports.AlertDeliverer (FCM o log).
package alerts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

var (
	// ErrPermissionDenied el usuario (o la configuración) no permite alertas.
	ErrPermissionDenied = errors.New("alertas: permiso denegado")
	// ErrUnknownHandle el handle no corresponde a una alerta pendiente.
	ErrUnknownHandle = errors.New("alertas: handle desconocido")
)

const deliverTimeout = 10 * time.Second

var _ ports.LocalAlertService = (*TimerService)(nil)

// TimerService programa alertas con time.AfterFunc. Los handles son UUID.
type TimerService struct {
	deliverer ports.AlertDeliverer
	log       *logger.Logger
	enabled   bool
	now       func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewTimerService construye el servicio. enabled=false hace fallar toda programación.
func NewTimerService(deliverer ports.AlertDeliverer, log *logger.Logger, enabled bool) *TimerService {
	return &TimerService{
		deliverer: deliverer,
		log:       log.Component("alerts"),
		enabled:   enabled,
		now:       time.Now,
		timers:    make(map[string]*time.Timer),
	}
}

// Schedule programa la alerta; un instante pasado dispara de inmediato.
func (s *TimerService) Schedule(_ context.Context, content entity.AlertContent, at time.Time) (string, error) {
	if !s.enabled {
		return "", ErrPermissionDenied
	}
	handle := uuid.NewString()
	delay := at.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", domain.ErrUnavailable
	}
	// el timer se crea con el lock tomado: fire espera a que el handle esté registrado
	s.timers[handle] = time.AfterFunc(delay, func() { s.fire(handle, content) })
	return handle, nil
}

// Cancel detiene una alerta pendiente. Un handle ya disparado o desconocido devuelve ErrUnknownHandle.
func (s *TimerService) Cancel(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[handle]
	if !ok {
		return ErrUnknownHandle
	}
	t.Stop()
	delete(s.timers, handle)
	return nil
}

// Pending cantidad de alertas sin disparar.
func (s *TimerService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close detiene todos los temporizadores pendientes.
func (s *TimerService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for h, t := range s.timers {
		t.Stop()
		delete(s.timers, h)
	}
}

func (s *TimerService) fire(handle string, content entity.AlertContent) {
	s.mu.Lock()
	if _, ok := s.timers[handle]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.timers, handle)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	if err := s.deliverer.Deliver(ctx, content); err != nil {
		s.log.Error().Err(err).
			Str("user_id", content.UserID).
			Str("stock_item_id", content.StockItemID).
			Msg("no se pudo entregar la alerta")
		return
	}
	s.log.Debug().Str("user_id", content.UserID).Str("handle", handle).Msg("alerta entregada")
}
