package memstore

import (
	"sync"

	"github.com/jhoicas/despensa-api/internal/domain/repository"
)

// subscription buzón de una suscripción. En modo asíncrono una goroutine entrega el último
// snapshot pendiente (los intermedios se fusionan); en modo síncrono se entrega en push.
type subscription struct {
	id         uint64
	collection string
	onSnapshot func(repository.Snapshot)
	onError    func(error)
	syncMode   bool

	mu      sync.Mutex
	pending *repository.Snapshot
	stopped bool
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newSubscription(id uint64, collection string, onSnapshot func(repository.Snapshot), onError func(error), syncMode bool) *subscription {
	sub := &subscription{
		id:         id,
		collection: collection,
		onSnapshot: onSnapshot,
		onError:    onError,
		syncMode:   syncMode,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	if !syncMode {
		go sub.loop()
	}
	return sub
}

func (s *subscription) push(snap repository.Snapshot) {
	if s.syncMode {
		if s.isStopped() {
			return
		}
		s.onSnapshot(snap)
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending = &snap
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) loop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
			s.mu.Lock()
			p := s.pending
			s.pending = nil
			stopped := s.stopped
			s.mu.Unlock()
			if p != nil && !stopped {
				s.onSnapshot(*p)
			}
		}
	}
}

func (s *subscription) fail(err error) {
	if s.isStopped() {
		return
	}
	s.stop()
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *subscription) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// stop es idempotente.
func (s *subscription) stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.pending = nil
		s.mu.Unlock()
		close(s.done)
	})
}
