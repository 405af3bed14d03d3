package middleware

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

const (
	csrfTokenLength = 32
	csrfCookieName  = "csrf_token"
	csrfFormField   = "csrf_token"
	csrfTokenExpiry = 24 * time.Hour
)

type csrfToken struct {
	token     string
	expiresAt time.Time
}

// CSRFStore keeps per-session tokens in memory.
type CSRFStore struct {
	tokens map[string]csrfToken
	mu     sync.RWMutex
}

func NewCSRFStore() *CSRFStore {
	store := &CSRFStore{tokens: make(map[string]csrfToken)}
	go store.cleanup()
	return store
}

func (s *CSRFStore) cleanup() {
	ticker := time.NewTicker(time.Hour)
	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for sessionID, t := range s.tokens {
			if now.After(t.expiresAt) {
				delete(s.tokens, sessionID)
			}
		}
		s.mu.Unlock()
	}
}

func (s *CSRFStore) GetOrCreate(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, exists := s.tokens[sessionID]; exists && time.Now().Before(t.expiresAt) {
		return t.token
	}

	raw := make([]byte, csrfTokenLength)
	if _, err := rand.Read(raw); err != nil {
		raw = []byte(time.Now().String())
	}
	token := base64.URLEncoding.EncodeToString(raw)

	s.tokens[sessionID] = csrfToken{
		token:     token,
		expiresAt: time.Now().Add(csrfTokenExpiry),
	}
	return token
}

func (s *CSRFStore) Validate(sessionID, provided string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tokens[sessionID]
	if !exists || time.Now().After(t.expiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(t.token), []byte(provided)) == 1
}

// CSRF protects the form posts of authenticated pages. Safe methods
// pass through and get a token cookie for the templates to pick up.
func CSRF(store *CSRFStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				ensureCSRFCookie(w, r, store)
				next.ServeHTTP(w, r)
				return
			}

			sessionID := sessionIDFromRequest(r)
			if sessionID == "" {
				http.Error(w, "Session required", http.StatusForbidden)
				return
			}

			token := r.Header.Get("X-CSRF-Token")
			if token == "" {
				token = r.FormValue(csrfFormField)
			}
			if token == "" || !store.Validate(sessionID, token) {
				http.Error(w, "Invalid CSRF token", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, store *CSRFStore) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		return
	}
	if _, err := r.Cookie(csrfCookieName); err == nil {
		return
	}

	token := store.GetOrCreate(sessionID)
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(csrfTokenExpiry.Seconds()),
	})
}

// sessionIDFromRequest derives a stable per-session key from the
// session cookie. The whole token value is hashed; a prefix would
// collapse every JWT onto its constant header.
func sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(cookie.Value))
	return hex.EncodeToString(sum[:])
}

// GetCSRFToken returns the token for the current session, for rendering
// into form templates.
func GetCSRFToken(r *http.Request, store *CSRFStore) string {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		return ""
	}
	return store.GetOrCreate(sessionID)
}
