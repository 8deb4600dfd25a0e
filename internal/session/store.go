// Package session provides the in-memory per-browser session store.
//
// It carries exactly one piece of state, the from_protected flag: whether
// the current navigation originated from an authenticated area. The flag
// only adjusts rendered UI affordances; nothing here participates in any
// access decision.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// CookieName is the browser session cookie. It identifies a session; it
// carries no data and is unrelated to the auth token cookie.
const CookieName = "serigen_session"

const sweepInterval = 5 * time.Minute

type entry struct {
	fromProtected bool
	expiresAt     time.Time
}

// Store keeps session state in process memory, keyed by a ULID handed to
// the browser as a cookie. Entries expire after ttl of inactivity and are
// reaped by a background sweep.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewStore creates a session store and starts its sweep goroutine.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

// SetFromProtected records the flag for the request's session, creating
// the session and setting its cookie when the browser has none yet.
func (s *Store) SetFromProtected(w http.ResponseWriter, r *http.Request, fromProtected bool) {
	id := s.sessionID(r)
	if id == "" {
		id = ulid.Make().String()
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &entry{
		fromProtected: fromProtected,
		expiresAt:     time.Now().Add(s.ttl),
	}
}

// FromProtected reports the flag for the request's session. A missing or
// expired session reads as false.
func (s *Store) FromProtected(r *http.Request) bool {
	id := s.sessionID(r)
	if id == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || time.Now().After(e.expiresAt) {
		return false
	}
	return e.fromProtected
}

// Close stops the sweep goroutine.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Store) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
