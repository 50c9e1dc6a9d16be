// Package memstore implementa repository.DocumentStore en memoria, con suscripciones en vivo.
// Pensado para desarrollo local (STORE_DRIVER=memory) y para tests.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
)

// Store almacén de documentos en memoria. Seguro para uso concurrente.
type Store struct {
	mu       sync.Mutex
	colls    map[string]map[string]map[string]any // colección -> id -> campos
	subs     map[string]map[uint64]*subscription
	nextSub  uint64
	syncMode bool
	closed   bool
	writeErr error
	now      func() time.Time
}

var _ repository.DocumentStore = (*Store)(nil)

// Option configura el Store.
type Option func(*Store)

// WithSyncDelivery entrega los snapshots en la goroutine que escribe, antes de que la escritura
// retorne. Hace deterministas los tests de suscripción.
func WithSyncDelivery() Option {
	return func(s *Store) { s.syncMode = true }
}

// WithClock reemplaza el reloj usado en Snapshot.ReadAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New crea un almacén vacío.
func New(opts ...Option) *Store {
	s := &Store{
		colls: make(map[string]map[string]map[string]any),
		subs:  make(map[string]map[uint64]*subscription),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FailWrites hace que toda escritura posterior devuelva err (nil restablece). Tests.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// FailSubscriptions entrega err a todas las suscripciones de la colección y las termina,
// como hace un backend real al revocar permisos.
func (s *Store) FailSubscriptions(collection string, err error) {
	s.mu.Lock()
	subs := s.subs[collection]
	delete(s.subs, collection)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.fail(err)
	}
}

// Subscribers cantidad de suscripciones activas de una colección.
func (s *Store) Subscribers(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[collection])
}

func (s *Store) Get(ctx context.Context, path string) (*repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	coll, id, err := repository.SplitDocPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrUnavailable
	}
	data, ok := s.colls[coll][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &repository.Document{ID: id, Path: path, Data: copyMap(data)}, nil
}

func (s *Store) List(ctx context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrUnavailable
	}
	return s.docsLocked(collection, filters), nil
}

func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	docs, ok := s.colls[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		s.colls[collection] = docs
	}
	docs[id] = copyMap(data)
	s.publishLocked(collection)
	return id, nil
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	coll, id, err := repository.SplitDocPath(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	data, ok := s.colls[coll][id]
	if !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	for k, v := range fields {
		data[k] = copyValue(v)
	}
	s.publishLocked(coll)
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	coll, id, err := repository.SplitDocPath(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.colls[coll][id]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.colls[coll], id)
	s.publishLocked(coll)
	return nil
}

// Subscribe registra la suscripción y entrega el snapshot inicial.
func (s *Store) Subscribe(ctx context.Context, collection string, onSnapshot func(repository.Snapshot), onError func(error)) (repository.Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrUnavailable
	}
	s.nextSub++
	sub := newSubscription(s.nextSub, collection, onSnapshot, onError, s.syncMode)
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[uint64]*subscription)
	}
	s.subs[collection][sub.id] = sub
	initial := s.snapshotLocked(collection)
	s.mu.Unlock()

	sub.push(initial)

	return func() {
		s.mu.Lock()
		if m := s.subs[collection]; m != nil {
			delete(m, sub.id)
		}
		s.mu.Unlock()
		sub.stop()
	}, nil
}

// Close termina todas las suscripciones. Operaciones posteriores devuelven ErrUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var all []*subscription
	for _, m := range s.subs {
		for _, sub := range m {
			all = append(all, sub)
		}
	}
	s.subs = make(map[string]map[uint64]*subscription)
	s.mu.Unlock()
	for _, sub := range all {
		sub.stop()
	}
	return nil
}

func (s *Store) writableLocked() error {
	if s.closed {
		return domain.ErrUnavailable
	}
	return s.writeErr
}

// publishLocked libera el lock y entrega el snapshot nuevo a los suscriptores de la colección.
func (s *Store) publishLocked(collection string) {
	snap := s.snapshotLocked(collection)
	subs := make([]*subscription, 0, len(s.subs[collection]))
	for _, sub := range s.subs[collection] {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	for _, sub := range subs {
		sub.push(copySnapshot(snap))
	}
}

func (s *Store) snapshotLocked(collection string) repository.Snapshot {
	return repository.Snapshot{
		Collection: collection,
		Docs:       s.docsLocked(collection, nil),
		ReadAt:     s.now(),
	}
}

func (s *Store) docsLocked(collection string, filters []repository.Filter) []repository.Document {
	docs := s.colls[collection]
	out := make([]repository.Document, 0, len(docs))
	for id, data := range docs {
		if !matches(data, filters) {
			continue
		}
		out = append(out, repository.Document{
			ID:   id,
			Path: repository.DocPath(collection, id),
			Data: copyMap(data),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matches(data map[string]any, filters []repository.Filter) bool {
	for _, f := range filters {
		if !equalValues(data[f.Field], f.Value) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func copySnapshot(s repository.Snapshot) repository.Snapshot {
	docs := make([]repository.Document, len(s.Docs))
	for i, d := range s.Docs {
		docs[i] = repository.Document{ID: d.ID, Path: d.Path, Data: copyMap(d.Data)}
	}
	s.Docs = docs
	return s
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	default:
		return v
	}
}
