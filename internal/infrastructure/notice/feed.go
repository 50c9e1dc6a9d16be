// Package notice implementa ports.UserNotifier: registra cada aviso en el log y conserva los
// últimos avisos por usuario para que el cliente los muestre como toasts.
package notice

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

// DefaultCapacity avisos retenidos por usuario; los más viejos se descartan.
const DefaultCapacity = 20

// Notice aviso pendiente de mostrar.
type Notice struct {
	Kind   entity.NoticeKind `json:"kind"`
	Title  string            `json:"title"`
	Detail string            `json:"detail,omitempty"`
	At     time.Time         `json:"at"`
}

var _ ports.UserNotifier = (*Feed)(nil)

// Feed buzón acotado de avisos por usuario. Seguro para uso concurrente.
type Feed struct {
	log      *logger.Logger
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	pending map[string][]Notice
}

// NewFeed crea el buzón. capacity <= 0 usa DefaultCapacity.
func NewFeed(log *logger.Logger, capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		log:      log.Component("notice"),
		capacity: capacity,
		now:      time.Now,
		pending:  make(map[string][]Notice),
	}
}

// Notify nunca bloquea ni falla.
func (f *Feed) Notify(_ context.Context, userID string, kind entity.NoticeKind, title, detail string) {
	ev := f.log.Info()
	if kind == entity.NoticeError {
		ev = f.log.Warn()
	}
	ev.Str("user_id", userID).Str("kind", string(kind)).Str("detail", detail).Msg(title)

	f.mu.Lock()
	defer f.mu.Unlock()
	q := append(f.pending[userID], Notice{Kind: kind, Title: title, Detail: detail, At: f.now().UTC()})
	if len(q) > f.capacity {
		q = q[len(q)-f.capacity:]
	}
	f.pending[userID] = q
}

// Drain devuelve y borra los avisos pendientes del usuario, del más viejo al más nuevo.
func (f *Feed) Drain(userID string) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.pending[userID]
	delete(f.pending, userID)
	if q == nil {
		return []Notice{}
	}
	return q
}
