// Package session keeps one view controller per browser session.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"latexify/internal/view"
)

type Session struct {
	ID         string
	Controller *view.Controller
	CreatedAt  time.Time
}

// Store is bounded by size and idle time. A session that falls out of the
// cache is closed, which ends its watchers.
type Store struct {
	cache *expirable.LRU[string, *Session]
	newFn func() *view.Controller
}

func NewStore(max int, ttl time.Duration, newController func() *view.Controller) *Store {
	if max <= 0 {
		max = 256
	}
	return &Store{
		cache: expirable.NewLRU[string, *Session](max, func(_ string, s *Session) {
			s.Controller.Close()
		}, ttl),
		newFn: newController,
	}
}

func (s *Store) Create() *Session {
	sess := &Session{
		ID:         uuid.NewString(),
		Controller: s.newFn(),
		CreatedAt:  time.Now(),
	}
	s.cache.Add(sess.ID, sess)
	return sess
}

// Get returns the session and restarts its idle timer.
func (s *Store) Get(id string) (*Session, bool) {
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	s.cache.Add(id, sess)
	return sess, true
}

func (s *Store) Delete(id string) bool {
	return s.cache.Remove(id)
}

func (s *Store) Len() int {
	return s.cache.Len()
}
