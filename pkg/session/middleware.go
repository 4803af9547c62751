package session

import (
	"errors"
	"net/http"
	"time"

	"quickbite/pkg/apperr"
)

type Manager struct {
	Store      Store
	CookieName string
	TTL        time.Duration
	Secure     bool
}

func NewManager(store Store, cookieName string, ttl time.Duration, secure bool) *Manager {
	return &Manager{Store: store, CookieName: cookieName, TTL: ttl, Secure: secure}
}

func (m *Manager) token(r *http.Request) string {
	c, err := r.Cookie(m.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// Load resolves the session cookie, if any, into a principal on the request
// context. Requests without a valid session pass through anonymous.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.Store.Get(r.Context(), m.token(r))
		if err == nil {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		} else if !errors.Is(err, ErrNoSession) {
			apperr.Write(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require admits only principals holding one of roles. No session is 401,
// a session with another role is 403.
func Require(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				apperr.Write(w, apperr.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			apperr.Write(w, apperr.Forbidden("role %s may not access this resource", p.Role))
		})
	}
}

// Login drops any session the request already carries, then issues a fresh one.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, p Principal) error {
	if err := m.Store.Delete(r.Context(), m.token(r)); err != nil {
		return err
	}
	token, err := m.Store.Create(r.Context(), p)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.TTL.Seconds()),
	})
	return nil
}

func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	if err := m.Store.Delete(r.Context(), m.token(r)); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure,
		MaxAge:   -1,
	})
	return nil
}
