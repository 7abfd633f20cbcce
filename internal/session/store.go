package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/utils"
)

// Store is the in-process table of active sessions. Mutation is
// serialized per session id: each entry carries its own mutex, so two
// concurrent turns on the same session queue up while unrelated
// sessions proceed in parallel. Turns are processed in lock-acquisition
// order; the guarantee is no corruption, not FIFO fairness.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	ttl time.Duration
	log *logrus.Logger

	// OnEvict runs after the reaper removes an abandoned session, outside
	// any store lock. Used to mark the durable mirror abandoned.
	OnEvict func(s *Session)
}

type entry struct {
	mu   sync.Mutex
	s    *Session
	gone bool
}

const DefaultTTL = 2 * time.Hour

func NewStore(ttl time.Duration, log *logrus.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logrus.New()
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		log:      log,
	}
}

// Put inserts a new session. An id collision is refused, never silently
// overwritten.
func (st *Store) Put(s *Session) error {
	const op = "session.Store.Put"

	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.sessions[s.ID]; exists {
		return utils.E(utils.CodeConflict, op, "session id already exists", nil)
	}
	st.sessions[s.ID] = &entry{s: s}
	return nil
}

// With runs fn while holding the session's lock, bumping last-activity
// on the way out. Everything a turn does (history append, model call,
// score record) happens inside fn so no partial state is ever visible
// to a concurrent caller.
func (st *Store) With(id string, fn func(s *Session) error) error {
	const op = "session.Store.With"

	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return utils.E(utils.CodeNotFound, op, "session not found", nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return utils.E(utils.CodeNotFound, op, "session not found", nil)
	}

	if err := fn(e.s); err != nil {
		return err
	}
	e.s.LastActivity = time.Now().UTC()
	return nil
}

// View is With for read-only callers; it does not bump last-activity.
func (st *Store) View(id string, fn func(s *Session)) error {
	const op = "session.Store.View"

	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return utils.E(utils.CodeNotFound, op, "session not found", nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return utils.E(utils.CodeNotFound, op, "session not found", nil)
	}
	fn(e.s)
	return nil
}

// Take removes the session and returns it, waiting for any in-flight
// turn to finish first. Exactly-once: a second Take (or any later With)
// on the same id reports not found.
func (st *Store) Take(id string) (*Session, error) {
	const op = "session.Store.Take"

	st.mu.Lock()
	e, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", nil)
	}
	e.gone = true
	return e.s, nil
}

// Len reports the number of active sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// StartReaper launches the background loop that evicts sessions whose
// last activity is older than the store TTL. Clients that never call
// end would otherwise leak table entries forever.
func (st *Store) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st.Reap(time.Now().UTC())
			}
		}
	}()
}

// Reap runs one eviction sweep against the given clock.
func (st *Store) Reap(now time.Time) {
	st.mu.RLock()
	candidates := make(map[string]*entry, len(st.sessions))
	for id, e := range st.sessions {
		candidates[id] = e
	}
	st.mu.RUnlock()

	for id, e := range candidates {
		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		last := e.s.LastActivity
		if last.IsZero() {
			last = e.s.StartedAt
		}
		if now.Sub(last) < st.ttl {
			e.mu.Unlock()
			continue
		}
		e.gone = true
		s := e.s
		e.mu.Unlock()

		st.mu.Lock()
		delete(st.sessions, id)
		st.mu.Unlock()

		st.log.WithFields(logrus.Fields{
			"session_id":    id,
			"last_activity": last,
		}).Info("reaped abandoned session")

		if st.OnEvict != nil {
			st.OnEvict(s)
		}
	}
}
