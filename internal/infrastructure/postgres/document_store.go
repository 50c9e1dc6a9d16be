// Package postgres implementa repository.DocumentStore sobre PostgreSQL: documentos JSONB por
// (colección, id) y suscripciones en vivo con LISTEN/NOTIFY.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

const notifyChannel = "documents_changed"

var _ repository.DocumentStore = (*DocumentStore)(nil)

// DocumentStore adaptador JSONB. Un único listener reparte las notificaciones de cambio a las
// suscripciones de la colección afectada, que releen la colección completa.
type DocumentStore struct {
	pool *pgxpool.Pool
	q    Querier
	log  *logger.Logger
	now  func() time.Time

	mu      sync.Mutex
	subs    map[string]map[uint64]*subscription
	nextSub uint64
	closed  bool

	listenCtx    context.Context
	stopListen   context.CancelFunc
	listenerDone chan struct{}
}

// NewDocumentStore construye el adaptador y arranca el listener de cambios.
func NewDocumentStore(pool *pgxpool.Pool, log *logger.Logger) *DocumentStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &DocumentStore{
		pool:         pool,
		q:            pool,
		log:          log.Component("postgres"),
		now:          time.Now,
		subs:         make(map[string]map[uint64]*subscription),
		listenCtx:    ctx,
		stopListen:   cancel,
		listenerDone: make(chan struct{}),
	}
	go s.listen()
	return s
}

func (s *DocumentStore) Get(ctx context.Context, path string) (*repository.Document, error) {
	coll, id, err := repository.SplitDocPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	var raw []byte
	if err := s.q.QueryRow(ctx, query, coll, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	data, err := decodeData(raw)
	if err != nil {
		return nil, err
	}
	return &repository.Document{ID: id, Path: path, Data: data}, nil
}

func (s *DocumentStore) List(ctx context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	match, err := filterJSON(filters)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT id, data FROM documents
		WHERE collection = $1 AND data @> $2::jsonb
		ORDER BY id`
	rows, err := s.q.Query(ctx, query, collection, match)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []repository.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		data, err := decodeData(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, repository.Document{ID: id, Path: repository.DocPath(collection, id), Data: data})
	}
	return out, rows.Err()
}

func (s *DocumentStore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	id := uuid.NewString()
	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`
	if _, err := s.q.Exec(ctx, query, collection, id, raw); err != nil {
		if isUniqueViolation(err) {
			return "", domain.ErrDuplicate
		}
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (s *DocumentStore) Update(ctx context.Context, path string, fields map[string]any) error {
	coll, id, err := repository.SplitDocPath(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	query := `
		UPDATE documents SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2`
	tag, err := s.q.Exec(ctx, query, coll, id, raw)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, path string) error {
	coll, id, err := repository.SplitDocPath(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if _, err := s.q.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, coll, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Subscribe registra la suscripción y programa la lectura inicial.
func (s *DocumentStore) Subscribe(ctx context.Context, collection string, onSnapshot func(repository.Snapshot), onError func(error)) (repository.Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrUnavailable
	}
	s.nextSub++
	sub := newSubscription(s.nextSub, collection, onSnapshot, onError, s.read)
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[uint64]*subscription)
	}
	s.subs[collection][sub.id] = sub
	s.mu.Unlock()

	go sub.run(ctx)
	sub.wake()

	return func() {
		s.mu.Lock()
		if m := s.subs[collection]; m != nil {
			delete(m, sub.id)
			if len(m) == 0 {
				delete(s.subs, collection)
			}
		}
		s.mu.Unlock()
		sub.stop()
	}, nil
}

// Close detiene el listener y las suscripciones. El pool lo cierra quien lo creó.
func (s *DocumentStore) Close() error {
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
	s.stopListen()
	<-s.listenerDone
	return nil
}

func (s *DocumentStore) read(ctx context.Context, collection string) (repository.Snapshot, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return repository.Snapshot{}, err
	}
	return repository.Snapshot{Collection: collection, Docs: docs, ReadAt: s.now().UTC()}, nil
}

// wakeCollection despierta las suscripciones de una colección; "" despierta todas.
func (s *DocumentStore) wakeCollection(collection string) {
	s.mu.Lock()
	var targets []*subscription
	for coll, m := range s.subs {
		if collection != "" && coll != collection {
			continue
		}
		for _, sub := range m {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()
	for _, sub := range targets {
		sub.wake()
	}
}

// listen mantiene una conexión dedicada con LISTEN. Si se corta, reconecta y resincroniza
// todas las suscripciones, porque pudo perder notificaciones.
func (s *DocumentStore) listen() {
	defer close(s.listenerDone)
	backoff := time.Second
	for s.listenCtx.Err() == nil {
		err := s.listenOnce()
		if s.listenCtx.Err() != nil {
			return
		}
		s.log.Warn().Err(err).Dur("retry_in", backoff).Msg("listener de cambios interrumpido")
		select {
		case <-s.listenCtx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *DocumentStore) listenOnce() error {
	conn, err := s.pool.Acquire(s.listenCtx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(s.listenCtx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.wakeCollection("")

	for {
		n, err := conn.Conn().WaitForNotification(s.listenCtx)
		if err != nil {
			return err
		}
		s.wakeCollection(n.Payload)
	}
}

func filterJSON(filters []repository.Filter) ([]byte, error) {
	m := make(map[string]any, len(filters))
	for _, f := range filters {
		m[f.Field] = f.Value
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: filtro: %v", domain.ErrInvalidInput, err)
	}
	return raw, nil
}

func decodeData(raw []byte) (map[string]any, error) {
	data := make(map[string]any)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return data, nil
}
