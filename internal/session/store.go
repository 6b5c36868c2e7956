package session

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Store keeps sessions in memory with a sliding TTL so abandoned tabs expire
// on their own. There is deliberately no persistence behind it.
type Store struct {
	cache *gocache.Cache
}

// NewStore creates a store whose sessions live for ttl after their last use.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{cache: gocache.New(ttl, ttl/2)}
}

// Create registers a new empty session.
func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString())
	s.cache.SetDefault(sess.ID, sess)
	return sess
}

// Get returns the session and refreshes its expiry.
func (s *Store) Get(id string) (*Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*Session)
	if !ok {
		return nil, false
	}
	s.cache.SetDefault(id, sess)
	return sess, true
}
