package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable is returned while a cart's snapshot cannot be read. The
// cart is not cached, so the next access tries the load again.
var ErrUnavailable = errors.New("cart temporarily unavailable")

// Runner runs fire-and-forget tasks.
type Runner interface {
	Go(fn func()) error
}

type RegistryConfig struct {
	Snapshots    SnapshotStore
	Notifier     Notifier
	Runner       Runner
	Log          logrus.FieldLogger
	IdleExpiry   time.Duration
	LoadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Registry owns the in-memory cart of every active session. A cart is loaded
// from its snapshot on first access and stays authoritative afterwards: later
// snapshot writes are asynchronous and their failures are only logged.
type Registry struct {
	snapshots    SnapshotStore
	notifier     Notifier
	runner       Runner
	log          logrus.FieldLogger
	expiry       time.Duration
	loadTimeout  time.Duration
	writeTimeout time.Duration

	mu    sync.Mutex
	carts map[string]*session
	done  chan struct{}
	once  sync.Once
}

type session struct {
	id         string
	lastAccess time.Time

	mu    sync.Mutex
	store *Store

	wmu     sync.Mutex
	pending *Snapshot
	writing bool
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = 2 * time.Second
	}
	if cfg.IdleExpiry == 0 {
		cfg.IdleExpiry = 30 * time.Minute
	}

	r := &Registry{
		snapshots:    cfg.Snapshots,
		notifier:     cfg.Notifier,
		runner:       cfg.Runner,
		log:          cfg.Log,
		expiry:       cfg.IdleExpiry,
		loadTimeout:  cfg.LoadTimeout,
		writeTimeout: cfg.WriteTimeout,
		carts:        make(map[string]*session),
		done:         make(chan struct{}),
	}
	go r.sweep()
	return r
}

// Do runs fn against the cart of cartID. Calls for the same cart never
// overlap. When fn changed the cart a snapshot write is scheduled. fn is not
// called when the cart's snapshot could not be read.
func (r *Registry) Do(ctx context.Context, cartID string, fn func(*Store) error) error {
	s := r.session(cartID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		st, err := r.load(ctx, cartID)
		if err != nil {
			return err
		}
		st.notify = func(n Notice) {
			if r.notifier != nil {
				r.notifier.Notify(cartID, n)
			}
		}
		s.store = st
	}

	err := fn(s.store)
	if s.store.takeChanged() {
		r.persist(s, s.store.Snapshot())
	}
	return err
}

func (r *Registry) View(ctx context.Context, cartID string) (View, error) {
	var v View
	err := r.Do(ctx, cartID, func(s *Store) error {
		v = s.View()
		return nil
	})
	return v, err
}

// Close stops the idle sweeper.
func (r *Registry) Close() {
	r.once.Do(func() { close(r.done) })
}

func (r *Registry) session(cartID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.carts[cartID]
	if !ok {
		s = &session{id: cartID}
		r.carts[cartID] = s
	}
	s.lastAccess = time.Now()
	return s
}

// load reads the snapshot of cartID. The read is not cancelled with ctx: a
// caller going away must not turn into a missing cart. An unreadable snapshot
// starts the cart empty, a failed read is returned.
func (r *Registry) load(ctx context.Context, cartID string) (*Store, error) {
	log := r.log.WithField("cart_id", cartID)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
	defer cancel()

	snap, err := r.snapshots.Load(ctx, cartID)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		return NewStore(), nil
	case errors.Is(err, ErrSnapshotVersion), errors.Is(err, ErrSnapshotCorrupt):
		log.WithError(err).Error("unreadable cart snapshot, starting empty")
		return NewStore(), nil
	case err != nil:
		log.WithError(err).Error("loading cart snapshot")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s, dropped := Restore(snap)
	if dropped > 0 {
		log.WithField("dropped", dropped).Warn("dropped invalid lines from cart snapshot")
	}
	return s, nil
}

// persist schedules a write of snap. While a write for the session is in
// flight newer snapshots replace the pending one, so writes never reorder.
func (r *Registry) persist(s *session, snap Snapshot) {
	s.wmu.Lock()
	s.pending = &snap
	if s.writing {
		s.wmu.Unlock()
		return
	}
	s.writing = true
	s.wmu.Unlock()

	if err := r.runner.Go(func() { r.flush(s) }); err != nil {
		r.flush(s)
	}
}

func (r *Registry) flush(s *session) {
	for {
		s.wmu.Lock()
		snap := s.pending
		s.pending = nil
		if snap == nil {
			s.writing = false
			s.wmu.Unlock()
			return
		}
		s.wmu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		err := r.snapshots.Save(ctx, s.id, *snap)
		cancel()

		if err != nil {
			r.log.WithFields(logrus.Fields{
				"cart_id": s.id,
				"lines":   len(snap.Lines),
			}).WithError(err).Error("persisting cart snapshot")
		}
	}
}

func (s *session) idle() bool {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return !s.writing
}

func (r *Registry) sweep() {
	interval := r.expiry / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval <= 0 {
		interval = time.Millisecond
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-t.C:
		}

		r.mu.Lock()
		for id, s := range r.carts {
			if time.Since(s.lastAccess) > r.expiry && s.idle() {
				delete(r.carts, id)
			}
		}
		r.mu.Unlock()
	}
}

func (r *Registry) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
