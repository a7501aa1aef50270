// Package auth provides cookie-session authentication for the API.
//
// A SessionManager owns the cookie store and exposes the middleware that
// loads the current user into the request context. No package-level
// globals: the manager is constructed in bootstrap and injected into the
// routers that need it.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionUser is the authenticated caller's profile as seen by handlers
// and policies. DepartmentID is empty for admins and for chiefs/users not
// yet assigned to a department.
type SessionUser struct {
	ID             string
	Name           string
	Email          string
	Role           string // admin | chief | user
	DepartmentID   string
	DepartmentName string
}

// UserFetcher loads fresh profile data for the user id stored in the
// session cookie. Fetching per request means role changes and disabled
// accounts take effect immediately. A nil return means "treat the caller
// as signed out".
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// SessionManager owns the cookie store and session lifecycle.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	log     *zap.Logger
	fetcher UserFetcher
}

// NewSessionManager builds a manager around a signed cookie store.
// An empty key generates a random one, which only suits development
// (sessions do not survive restarts).
func NewSessionManager(key, name, domain string, secure bool, log *zap.Logger) (*SessionManager, error) {
	b := []byte(key)
	if len(b) == 0 {
		b = securecookie.GenerateRandomKey(32)
		log.Warn("no session key configured; generated a volatile one")
	}
	store := sessions.NewCookieStore(b)
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   86400 * 14,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: name, log: log}, nil
}

// SetUserFetcher installs the per-request profile loader. Must be called
// before the middleware serves traffic.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user from the request context.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithUser returns a request whose context carries the given user.
// Exported for handler tests.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// LoadSessionUser injects the caller's profile into the context when the
// session cookie marks them authenticated. With a fetcher installed the
// profile is re-read from the store; otherwise the request proceeds
// unauthenticated.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sm.store.Get(r, sm.name)

		isAuth, _ := sess.Values[isAuthKey].(bool)
		id, _ := sess.Values[userIDKey].(string)
		if isAuth && id != "" && sm.fetcher != nil {
			if u := sm.fetcher.FetchUser(r.Context(), id); u != nil {
				r = WithUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn marks the session authenticated for the given user id.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut clears the session.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// RequireSignedIn is the middleware form of the sign-in guard, hung off
// the manager so routers need only one dependency.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return RequireSignedIn(next)
}

// RequireRole is the middleware form of the role guard.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return RequireRole(allowed...)
}

// RequireSignedIn rejects unauthenticated requests with a plain 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose caller lacks one of the allowed
// roles: 401 when signed out, 403 otherwise.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, allowed := set[strings.ToLower(u.Role)]; !allowed {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
