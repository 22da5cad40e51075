package diary

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/kidsgram/internal/keylock"
)

// Sessions hands out one Repository per signed-in owner. A repository
// lives until the owner logs out or, with Config.IdleTimeout set, until
// the owner has made no request for that long.
type Sessions struct {
	cfg Config
	now func() time.Time

	mu    sync.Mutex
	repos map[string]*session
	swept time.Time
}

type session struct {
	repo *Repository
	seen time.Time
}

// NewSessions returns an empty set of sessions. Every repository it
// creates shares cfg, including one lock table.
func NewSessions(cfg Config) *Sessions {
	if cfg.Locks == nil {
		cfg.Locks = keylock.New()
	}
	return &Sessions{cfg: cfg, now: time.Now, repos: make(map[string]*session)}
}

// Get returns the owner's repository, creating it on first use.
func (s *Sessions) Get(ownerID string) *Repository {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictIdle(now)

	sess, ok := s.repos[ownerID]
	if !ok {
		sess = &session{repo: New(ownerID, s.cfg)}
		s.repos[ownerID] = sess
	}
	sess.seen = now
	return sess.repo
}

// evictIdle drops sessions idle longer than the timeout. It scans at most
// twice per timeout period. Callers hold s.mu.
func (s *Sessions) evictIdle(now time.Time) {
	idle := s.cfg.IdleTimeout
	if idle <= 0 || now.Sub(s.swept) < idle/2 {
		return
	}
	s.swept = now

	for owner, sess := range s.repos {
		if now.Sub(sess.seen) > idle {
			delete(s.repos, owner)
		}
	}
}

// Discard drops the owner's repository and its cache.
func (s *Sessions) Discard(ownerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.repos[ownerID]
	delete(s.repos, ownerID)
	return ok
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.repos)
}
