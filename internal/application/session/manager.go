package session

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

// ManagerConfig intervalos del administrador de sesiones.
type ManagerConfig struct {
	Refresh time.Duration // recálculo periódico de cada vista
	Idle    time.Duration // sesiones sin uso por más de Idle se cierran
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// Manager mantiene una sesión por usuario, creada bajo demanda y cerrada por inactividad.
type Manager struct {
	deps Deps
	cfg  ManagerConfig
	log  *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
}

// NewManager crea el administrador. ctx acota la vida de todas las sesiones.
func NewManager(ctx context.Context, deps Deps, cfg ManagerConfig) *Manager {
	deps = deps.withDefaults()
	if cfg.Refresh <= 0 {
		cfg.Refresh = time.Minute
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 30 * time.Minute
	}
	mctx, cancel := context.WithCancel(ctx)
	return &Manager{
		deps:     deps,
		cfg:      cfg,
		log:      deps.Log.Component("sessions"),
		ctx:      mctx,
		cancel:   cancel,
		sessions: make(map[string]*entry),
	}
}

// Get devuelve la sesión del usuario, iniciándola si no existe.
func (m *Manager) Get(userID string) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domain.ErrUnavailable
	}
	if e, ok := m.sessions[userID]; ok {
		e.lastUsed = m.deps.Now()
		m.mu.Unlock()
		return e.session, nil
	}
	m.mu.Unlock()

	s := New(userID, m.deps)
	if err := s.Start(m.ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		s.Close()
		return nil, domain.ErrUnavailable
	}
	// otra petición pudo iniciar la misma sesión en paralelo
	if e, ok := m.sessions[userID]; ok {
		e.lastUsed = m.deps.Now()
		m.mu.Unlock()
		s.Close()
		return e.session, nil
	}
	m.sessions[userID] = &entry{session: s, lastUsed: m.deps.Now()}
	n := len(m.sessions)
	m.mu.Unlock()

	go s.Run(m.ctx, m.cfg.Refresh)
	m.deps.Metrics.SessionsActive(n)
	m.log.Info().Str("user_id", userID).Int("active", n).Msg("sesión abierta")
	return s, nil
}

// End cierra la sesión del usuario si existe.
func (m *Manager) End(userID string) {
	m.mu.Lock()
	e, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	n := len(m.sessions)
	m.mu.Unlock()
	if ok {
		e.session.Close()
		m.deps.Metrics.SessionsActive(n)
	}
}

// Active número de sesiones abiertas.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ReapIdle cierra las sesiones sin uso desde antes de now − Idle. Devuelve cuántas cerró.
func (m *Manager) ReapIdle(now time.Time) int {
	m.mu.Lock()
	var stale []*Session
	for id, e := range m.sessions {
		if now.Sub(e.lastUsed) > m.cfg.Idle {
			stale = append(stale, e.session)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		m.deps.Metrics.SessionsActive(n)
		m.log.Info().Int("closed", len(stale)).Int("active", n).Msg("sesiones inactivas cerradas")
	}
	return len(stale)
}

// RunReaper revisa periódicamente las sesiones inactivas hasta que ctx termine.
func (m *Manager) RunReaper(ctx context.Context) {
	every := m.cfg.Idle / 2
	if every > time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.ctx.Done():
			return
		case <-t.C:
			m.ReapIdle(m.deps.Now())
		}
	}
}

// CloseAll cierra todas las sesiones; Get posteriores fallan.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	m.closed = true
	all := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		all = append(all, e.session)
	}
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	m.cancel()
	m.deps.Metrics.SessionsActive(0)
}
