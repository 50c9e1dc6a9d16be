// Package session mantiene, por usuario, las suscripciones en vivo a stock, listas (con sus
// ítems) y notificaciones, deriva la vista consistente y alimenta al motor de alertas.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/despensa-api/internal/application/alerting"
	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

// Deps dependencias compartidas por todas las sesiones.
type Deps struct {
	Stock         repository.StockRepository
	Lists         repository.ListRepository
	Notifications repository.NotificationRepository
	Engine        *alerting.Engine
	Notifier      ports.UserNotifier
	Metrics       ports.Metrics
	Log           *logger.Logger
	Now           func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Metrics == nil {
		d.Metrics = ports.NopMetrics{}
	}
	return d
}

// Session estado en vivo de un usuario. El mutex nunca se mantiene mientras se llama al
// almacén, al motor o al programador: con entrega síncrona esas llamadas vuelven a entrar.
type Session struct {
	userID string
	deps   Deps
	log    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}

	mu            sync.Mutex
	closed        bool
	stock         []entity.StockItem
	lists         []entity.GroceryList
	items         map[string][]entity.ListItem
	notifications []entity.Notification
	rootUnsubs    []repository.Unsubscribe
	childUnsubs   map[string]repository.Unsubscribe
	childGen      uint64
	// notified claves "ítem:tipo" ya entregadas al motor en esta sesión
	notified map[string]bool
	inflight map[string]bool
	reported map[string]bool
	stale    bool
	view     View
}

// New crea una sesión sin iniciar.
func New(userID string, deps Deps) *Session {
	deps = deps.withDefaults()
	return &Session{
		userID:      userID,
		deps:        deps,
		log:         deps.Log.Component("session").ForUser(userID),
		done:        make(chan struct{}),
		items:       make(map[string][]entity.ListItem),
		childUnsubs: make(map[string]repository.Unsubscribe),
		notified:    make(map[string]bool),
		inflight:    make(map[string]bool),
		reported:    make(map[string]bool),
	}
}

// UserID dueño de la sesión.
func (s *Session) UserID() string { return s.userID }

// Start abre las suscripciones raíz. Si alguna falla, la sesión se cierra y se devuelve el error.
func (s *Session) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	subs := []func() (repository.Unsubscribe, error){
		func() (repository.Unsubscribe, error) {
			return s.deps.Stock.Watch(s.ctx, s.userID, s.onStock, s.onError(repository.StockCollection(s.userID)))
		},
		func() (repository.Unsubscribe, error) {
			return s.deps.Notifications.Watch(s.ctx, s.userID, s.onNotifications, s.onError(repository.NotificationsCollection(s.userID)))
		},
		func() (repository.Unsubscribe, error) {
			return s.deps.Lists.WatchLists(s.ctx, s.userID, s.onLists, s.onError(repository.ListsCollection(s.userID)))
		},
	}
	for _, subscribe := range subs {
		unsub, err := subscribe()
		if err != nil {
			s.Close()
			return &domain.SubscriptionError{Collection: repository.UserRoot(s.userID), Err: err}
		}
		if !s.keepRoot(unsub) {
			return domain.ErrUnavailable
		}
	}
	s.log.Debug().Msg("sesión iniciada")
	return nil
}

func (s *Session) keepRoot(unsub repository.Unsubscribe) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsub()
		return false
	}
	s.rootUnsubs = append(s.rootUnsubs, unsub)
	s.mu.Unlock()
	return true
}

// Run recalcula la vista cada intervalo hasta que ctx termine o la sesión se cierre,
// para que las transiciones por paso del tiempo (ok → bajo → agotado) se noten sin eventos.
func (s *Session) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-t.C:
			s.Refresh()
		}
	}
}

// Refresh re-deriva la vista desde los últimos snapshots con la hora actual.
func (s *Session) Refresh() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.rederiveLocked()
	pending := s.claimCandidatesLocked()
	s.mu.Unlock()
	s.evaluate(pending)
}

// View copia de la vista derivada actual.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	v.Stock = append([]StockView(nil), v.Stock...)
	v.Lists = append([]ListView(nil), v.Lists...)
	v.Notifications = append([]entity.Notification(nil), v.Notifications...)
	return v
}

// Done se cierra cuando la sesión termina.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close libera todas las suscripciones. Idempotente; después de Close ningún callback modifica el estado.
func (s *Session) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		unsubs := append([]repository.Unsubscribe(nil), s.rootUnsubs...)
		for _, u := range s.childUnsubs {
			unsubs = append(unsubs, u)
		}
		s.rootUnsubs = nil
		s.childUnsubs = make(map[string]repository.Unsubscribe)
		s.childGen++
		s.notified = make(map[string]bool)
		s.inflight = make(map[string]bool)
		s.mu.Unlock()

		for _, u := range unsubs {
			u()
		}
		if s.cancel != nil {
			s.cancel()
		}
		close(s.done)
		s.log.Debug().Msg("sesión cerrada")
	})
}

// ── callbacks de suscripción ─────────────────────────────────────────────────

func (s *Session) onStock(items []entity.StockItem) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.stock = items
	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[it.ID] = true
	}
	for key := range s.notified {
		if !present[itemOf(key)] && !s.inflight[key] {
			delete(s.notified, key)
		}
	}
	s.rederiveLocked()
	pending := s.claimCandidatesLocked()
	s.mu.Unlock()
	s.evaluate(pending)
}

func (s *Session) onNotifications(list []entity.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.notifications = list
	unseen := make(map[string]bool, len(list))
	for _, n := range list {
		if !n.Seen {
			unseen[n.StockItemID] = true
		}
	}
	// sin notificación no vista el ítem vuelve al estado "ninguna": la próxima transición alerta
	for key := range s.notified {
		if !unseen[itemOf(key)] && !s.inflight[key] {
			delete(s.notified, key)
		}
	}
	s.rederiveLocked()
}

// onLists en cada snapshot del padre desmonta todas las suscripciones hijas y monta nuevas.
func (s *Session) onLists(lists []entity.GroceryList) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.lists = lists
	s.childGen++
	gen := s.childGen
	old := s.childUnsubs
	s.childUnsubs = make(map[string]repository.Unsubscribe, len(lists))
	keep := make(map[string][]entity.ListItem, len(lists))
	for _, l := range lists {
		if items, ok := s.items[l.ID]; ok {
			keep[l.ID] = items
		}
	}
	s.items = keep
	s.rederiveLocked()
	s.mu.Unlock()

	for _, u := range old {
		u()
	}

	for _, l := range lists {
		listID := l.ID
		unsub, err := s.deps.Lists.WatchItems(s.ctx, s.userID, listID, s.onItems(gen, listID),
			s.onError(repository.ListItemsCollection(s.userID, listID)))
		if err != nil {
			s.onError(repository.ListItemsCollection(s.userID, listID))(err)
			continue
		}
		s.mu.Lock()
		if s.closed || s.childGen != gen {
			s.mu.Unlock()
			unsub()
			return
		}
		s.childUnsubs[listID] = unsub
		s.mu.Unlock()
	}
}

func (s *Session) onItems(gen uint64, listID string) func([]entity.ListItem) {
	return func(items []entity.ListItem) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.childGen != gen {
			return
		}
		s.items[listID] = items
		s.rederiveLocked()
	}
}

// onError informa una sola vez por colección; la vista queda congelada y marcada como vieja.
func (s *Session) onError(collection string) func(error) {
	return func(err error) {
		s.mu.Lock()
		if s.closed || s.reported[collection] {
			s.mu.Unlock()
			return
		}
		s.reported[collection] = true
		s.stale = true
		s.view.Stale = true
		s.mu.Unlock()

		s.deps.Metrics.SubscriptionFailed(collection)
		s.log.Warn().Err(&domain.SubscriptionError{Collection: collection, Err: err}).Msg("suscripción en vivo interrumpida")
		if s.deps.Notifier != nil {
			s.deps.Notifier.Notify(s.ctx, s.userID, entity.NoticeError, "Sin conexión con tus datos",
				"Mostramos la última información disponible.")
		}
	}
}

// ── derivación y alertas ─────────────────────────────────────────────────────

func (s *Session) rederiveLocked() {
	s.view = derive(s.stock, s.lists, s.items, s.notifications, s.stale, s.deps.Now())
}

// claimCandidatesLocked reserva las claves de los ítems bajos/agotados aún no entregados al motor.
func (s *Session) claimCandidatesLocked() []candidate {
	var out []candidate
	for _, sv := range s.view.Stock {
		if !sv.Eval.Status.NeedsAlert() {
			continue
		}
		key := notifiedKey(sv.Item.ID, sv.Eval.Status.AlertKind())
		if s.notified[key] {
			continue
		}
		s.notified[key] = true
		s.inflight[key] = true
		out = append(out, candidate{item: sv.Item, key: key})
	}
	return out
}

func (s *Session) evaluate(pending []candidate) {
	if len(pending) == 0 || s.deps.Engine == nil {
		return
	}
	for _, c := range pending {
		_, err := s.deps.Engine.Evaluate(s.ctx, s.userID, c.item, s.deps.Now())

		s.mu.Lock()
		delete(s.inflight, c.key)
		if err != nil && !s.closed {
			// se vuelve a intentar en el próximo snapshot o Refresh
			delete(s.notified, c.key)
		}
		s.mu.Unlock()

		if err != nil {
			s.log.Warn().Err(err).Str("stock_item_id", c.item.ID).Msg("no se pudo evaluar la alerta del ítem")
		}
	}
}
