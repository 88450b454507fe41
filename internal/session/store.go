package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName is the name of the browser cookie carrying the signed session ID.
const CookieName = "dayglance_session"

// User holds the Google profile of the signed-in user.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Tokens holds the OAuth credentials obtained in the callback exchange.
// Tokens present implies User present; both are set together on login.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session is the per-browser-session state.
type Session struct {
	User   *User
	Tokens *Tokens
}

// entry tracks a session plus metadata for the expiry sweep
type entry struct {
	session    *Session
	lastAccess time.Time
}

// Store is a process-wide, cookie-identified session store.
// Sessions for different browsers never share an entry, so concurrent
// requests only contend on the map lock itself.
type Store struct {
	sessions      map[string]*entry
	mu            sync.RWMutex
	secret        []byte
	ttl           time.Duration
	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	logger        *slog.Logger
}

// NewStore creates a session store that signs cookie IDs with secret and
// expires idle sessions after ttl.
func NewStore(secret string, ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		sessions:      make(map[string]*entry),
		secret:        []byte(secret),
		ttl:           ttl,
		cleanupTicker: time.NewTicker(10 * time.Minute),
		cleanupDone:   make(chan struct{}),
		logger:        logger,
	}

	go s.cleanupExpiredSessions()

	return s
}

// Get returns the session attached to the request's cookie, if the cookie
// exists, carries a valid signature and the session is still live.
func (s *Store) Get(r *http.Request) (*Session, bool) {
	id, ok := s.requestID(r)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastAccess = time.Now()
	return e.session, true
}

// Set stores sess under the request's session ID, minting a new ID and
// setting the cookie when the request carries none. It returns the ID the
// session was stored under.
func (s *Store) Set(w http.ResponseWriter, r *http.Request, sess *Session) string {
	id, ok := s.requestID(r)
	if !ok {
		id = uuid.NewString()
	}

	s.mu.Lock()
	s.sessions[id] = &entry{session: sess, lastAccess: time.Now()}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.sign(id),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id
}

// Destroy removes the request's session and expires the cookie.
// Destroying an absent session is not an error.
func (s *Store) Destroy(w http.ResponseWriter, r *http.Request) error {
	if id, ok := s.requestID(r); ok {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// requestID extracts and verifies the session ID from the request cookie.
func (s *Store) requestID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return s.verify(cookie.Value)
}

// sign returns id plus its HMAC-SHA256 tag, cookie-safe encoded.
func (s *Store) sign(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verify splits a cookie value into ID and tag and checks the signature.
func (s *Store) verify(value string) (string, bool) {
	id, tag, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}

	got, err := base64.RawURLEncoding.DecodeString(tag)
	if err != nil {
		return "", false
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", false
	}
	return id, true
}

// cleanupExpiredSessions periodically removes idle sessions.
func (s *Store) cleanupExpiredSessions() {
	for {
		select {
		case <-s.cleanupTicker.C:
			s.mu.Lock()
			now := time.Now()
			expiredCount := 0
			for id, e := range s.sessions {
				if now.Sub(e.lastAccess) > s.ttl {
					delete(s.sessions, id)
					expiredCount++
				}
			}
			s.mu.Unlock()
			if expiredCount > 0 {
				s.logger.Info("Cleaned up expired sessions", "count", expiredCount)
			}
		case <-s.cleanupDone:
			return
		}
	}
}

// Stop stops the session cleanup goroutine.
func (s *Store) Stop() {
	if s.cleanupTicker != nil {
		s.cleanupTicker.Stop()
	}
	if s.cleanupDone != nil {
		close(s.cleanupDone)
	}
}
