package checkout

import (
	"context"
	"sync"
	"time"

	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/logger"

	"github.com/samber/lo"
)

const DefaultIdleTTL = 30 * time.Minute

// Registry holds the open sessions. A session belongs to the user who opened
// it; to anyone else it does not exist.
type Registry struct {
	deps *Deps
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	owners   map[string]int64
}

func NewRegistry(deps *Deps, ttl time.Duration) *Registry {
	return &Registry{
		deps:     deps,
		ttl:      lo.Ternary(ttl > 0, ttl, DefaultIdleTTL),
		now:      time.Now,
		sessions: make(map[string]*Session),
		owners:   make(map[string]int64),
	}
}

// Open creates a session for user and dials its channel. The session is
// returned even when the first dial fails; it keeps reconnecting.
func (r *Registry) Open(ctx context.Context, user types.UserWithAuth) (*Session, error) {
	if !user.ExpiresAt.IsZero() && !r.now().Before(user.ExpiresAt) {
		return nil, ErrCredentialExpired
	}

	s := newSession(user, r.deps)
	s.now = r.now
	s.touch()

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.owners[s.ID] = user.ID
	r.mu.Unlock()

	if err := s.open(ctx); err != nil {
		logger.Warning.Printf("Session %s opened without a channel: %v", s.ID, err)
	}

	logger.Info.Printf("Session %s opened for user %d", s.ID, user.ID)
	return s, nil
}

func (r *Registry) Get(id string, userID int64) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	owner := r.owners[id]
	r.mu.Unlock()

	if !ok || owner != userID {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

func (r *Registry) Close(id string, userID int64) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || r.owners[id] != userID {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	delete(r.owners, id)
	r.mu.Unlock()

	logger.Info.Printf("Session %s closed by user %d", id, userID)
	return s.Close()
}

// Reap closes every session idle for the TTL and returns how many it closed.
func (r *Registry) Reap() int {
	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.idle(r.ttl) {
			idle = append(idle, s)
			delete(r.sessions, id)
			delete(r.owners, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		logger.Info.Printf("Session %s reaped after %v idle", s.ID, r.ttl)
		if err := s.Close(); err != nil {
			logger.Warning.Printf("Failed to close session %s: %v", s.ID, err)
		}
	}
	return len(idle)
}

// Run reaps idle sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := lo.Max([]time.Duration{r.ttl / 4, time.Second})
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reap()
		}
	}
}

// CloseAll closes every session cleanly, for shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := lo.Values(r.sessions)
	r.sessions = make(map[string]*Session)
	r.owners = make(map[string]int64)
	r.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			logger.Warning.Printf("Failed to close session %s: %v", s.ID, err)
		}
	}
	logger.Info.Printf("Closed %d checkout sessions", len(sessions))
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
