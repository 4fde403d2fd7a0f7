package session

import (
	"time"

	"noc-stats/connectors/workbook"
	dc "noc-stats/domain/config"
	"noc-stats/metrics"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const digestPrefix = "digest:"

// Store keeps sessions in memory for a sliding TTL. A workbook whose
// digest matches a live session reuses it instead of normalizing again.
type Store struct {
	cache *cache.Cache
	cfg   dc.Config
	now   func() time.Time
}

// NewStore creates a store; now feeds the normalization clock.
func NewStore(cfg dc.Config, now func() time.Time) *Store {
	ttl := cfg.Web.SessionTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := 10 * time.Minute
	if ttl > 0 && ttl < cleanup {
		cleanup = ttl
	}
	st := &Store{cache: cache.New(ttl, cleanup), cfg: cfg, now: now}
	st.cache.OnEvicted(func(string, interface{}) { st.gauge() })
	return st
}

func (st *Store) gauge() { metrics.SessionsActive.Set(float64(st.Len())) }

// Open returns the session for book, building it when no live session has
// the same digest. reused reports a cache hit.
func (st *Store) Open(book *workbook.Book) (s *Session, reused bool, err error) {
	if book.Digest != "" {
		if id, ok := st.cache.Get(digestPrefix + book.Digest); ok {
			if s, ok := st.Get(id.(string)); ok {
				return s, true, nil
			}
		}
	}
	s, err = New(book, st.cfg, st.now)
	if err != nil {
		return nil, false, err
	}
	s.ID = uuid.New().String()
	st.cache.SetDefault(s.ID, s)
	if s.Digest != "" {
		st.cache.SetDefault(digestPrefix+s.Digest, s.ID)
	}
	st.gauge()
	return s, false, nil
}

// Get returns a live session and extends its lifetime.
func (st *Store) Get(id string) (*Session, bool) {
	v, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	if !ok {
		return nil, false
	}
	st.cache.SetDefault(id, s)
	if s.Digest != "" {
		st.cache.SetDefault(digestPrefix+s.Digest, id)
	}
	return s, true
}

// Delete drops a session.
func (st *Store) Delete(id string) {
	if s, ok := st.Get(id); ok && s.Digest != "" {
		st.cache.Delete(digestPrefix + s.Digest)
	}
	st.cache.Delete(id)
}

// Len counts live sessions.
func (st *Store) Len() int {
	n := 0
	for _, item := range st.cache.Items() {
		if _, ok := item.Object.(*Session); ok {
			n++
		}
	}
	return n
}
