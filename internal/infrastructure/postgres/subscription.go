package postgres

import (
	"context"
	"sync"

	"github.com/jhoicas/despensa-api/internal/domain/repository"
)

type reader func(ctx context.Context, collection string) (repository.Snapshot, error)

// subscription relee la colección cada vez que la despiertan; despertares acumulados se fusionan
// en una sola lectura. Un error de lectura se informa una vez y termina la suscripción.
type subscription struct {
	id         uint64
	collection string
	onSnapshot func(repository.Snapshot)
	onError    func(error)
	read       reader

	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newSubscription(id uint64, collection string, onSnapshot func(repository.Snapshot), onError func(error), read reader) *subscription {
	return &subscription{
		id:         id,
		collection: collection,
		onSnapshot: onSnapshot,
		onError:    onError,
		read:       read,
		signal:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (s *subscription) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscription) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.signal:
		}
		snap, err := s.read(ctx, s.collection)
		if s.stopped() || ctx.Err() != nil {
			return
		}
		if err != nil {
			s.stop()
			if s.onError != nil {
				s.onError(err)
			}
			return
		}
		s.onSnapshot(snap)
	}
}

func (s *subscription) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}
