package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

var _ repository.DocumentStore = (*Store)(nil)

// Store adaptador de documentos sobre Firestore. Las rutas del dominio (users/{uid}/stock/...)
// se usan tal cual como rutas de Firestore.
type Store struct {
	client *gfs.Client
	log    *logger.Logger

	mu     sync.Mutex
	subs   map[uint64]context.CancelFunc
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

// NewStore construye el adaptador. El Store es dueño del cliente y lo cierra en Close.
func NewStore(client *gfs.Client, log *logger.Logger) *Store {
	return &Store{
		client: client,
		log:    log.Component("firestore"),
		subs:   make(map[uint64]context.CancelFunc),
	}
}

func (s *Store) Get(ctx context.Context, path string) (*repository.Document, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	d := toDocument(snap)
	return &d, nil
}

func (s *Store) List(ctx context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}
	it := q.Documents(ctx)
	defer it.Stop()

	var out []repository.Document
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, toDocument(snap))
	}
	sortDocs(out)
	return out, nil
}

func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", mapErr(err)
	}
	return ref.ID, nil
}

// Update usa DocumentRef.Update, que falla con NotFound si el documento no existe.
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	updates := make([]gfs.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, gfs.Update{FieldPath: gfs.FieldPath{k}, Value: v})
	}
	_, err := s.client.Doc(path).Update(ctx, updates)
	return mapErr(err)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.Doc(path).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return mapErr(err)
}

// Subscribe abre un listener de la colección en su propia goroutine. El primer snapshot
// es el estado inicial. La cancelación por Unsubscribe o Close no se informa como error.
func (s *Store) Subscribe(ctx context.Context, collection string, onSnapshot func(repository.Snapshot), onError func(error)) (repository.Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrUnavailable
	}
	s.nextID++
	id := s.nextID
	subCtx, cancel := context.WithCancel(ctx)
	s.subs[id] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	it := s.client.Collection(collection).Snapshots(subCtx)
	go func() {
		defer s.wg.Done()
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if subCtx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, iterator.Done) {
					return
				}
				s.log.Warn().Err(err).Str("collection", collection).Msg("listener terminado con error")
				if onError != nil {
					onError(mapErr(err))
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				if onError != nil {
					onError(mapErr(err))
				}
				return
			}
			out := make([]repository.Document, 0, len(docs))
			for _, d := range docs {
				out = append(out, toDocument(d))
			}
			sortDocs(out)
			if subCtx.Err() != nil {
				return
			}
			onSnapshot(repository.Snapshot{Collection: collection, Docs: out, ReadAt: qs.ReadTime})
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			cancel()
		})
	}, nil
}

// Close cancela los listeners, espera a que terminen y cierra el cliente.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for id, cancel := range s.subs {
		cancel()
		delete(s.subs, id)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("listeners sin terminar al cerrar")
	}
	return s.client.Close()
}

func toDocument(snap *gfs.DocumentSnapshot) repository.Document {
	return repository.Document{
		ID:   snap.Ref.ID,
		Path: relativePath(snap.Ref.Path),
		Data: snap.Data(),
	}
}

// relativePath recorta el prefijo "projects/<p>/databases/<db>/documents/".
func relativePath(full string) string {
	const marker = "/documents/"
	if i := strings.Index(full, marker); i >= 0 {
		return full[i+len(marker):]
	}
	return full
}

func sortDocs(docs []repository.Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return domain.ErrNotFound
	case codes.AlreadyExists:
		return domain.ErrDuplicate
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: %v", domain.ErrForbidden, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}
