package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/inkwell-social/apiserver/internal/services"
	"github.com/inkwell-social/apiserver/types"
)

// Authenticator resolves request credentials into a principal.
type Authenticator struct {
	users    *services.UserService
	accounts *services.AccountService
}

func NewAuthenticator(users *services.UserService, accounts *services.AccountService) *Authenticator {
	return &Authenticator{users: users, accounts: accounts}
}

// Resolve is middleware that turns the Authorization header into a
// principal on the request context. Two credential shapes are accepted
// in a basic-auth header: email:password, or token with an empty
// password. Missing or empty credentials resolve to the anonymous
// principal; read-only routes stay reachable, permission checks all
// fail. Bad credentials are a generic 401.
func (a *Authenticator) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, password, ok := basicCredentials(r)
		if !ok || identity == "" {
			ctx := withPrincipal(r.Context(), types.AnonymousPrincipal())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		var user types.User
		if password == "" {
			// Token authentication.
			resolved, err := a.accounts.VerifyAPIToken(r.Context(), identity)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			user = resolved
		} else {
			resolved, valid, err := a.users.Authenticate(r.Context(), identity, password)
			if err != nil || !valid {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			user = resolved
		}

		// Best effort; a failed touch never blocks the request.
		_ = a.users.TouchLastSeen(r.Context(), user.ID)

		ctx := withPrincipal(r.Context(), types.Principal{User: user})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthenticated rejects anonymous requests.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principalFromContext(r.Context()).Anonymous {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireConfirmed rejects authenticated but unconfirmed accounts.
// Anonymous requests pass through untouched so it can sit on a whole
// route group without taking read-only access away from them.
func RequireConfirmed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := principalFromContext(r.Context())
		if !principal.Anonymous && !principal.User.Confirmed {
			writeError(w, http.StatusForbidden, "unconfirmed account")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission rejects principals missing the given permission bit.
// Anonymous principals hold no permissions at all.
func RequirePermission(perm types.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := principalFromContext(r.Context())
			if principal.Anonymous {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !principal.Can(perm) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func basicCredentials(r *http.Request) (identity, password string, ok bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", "", false
	}
	const prefix = "Basic"
	if !strings.HasPrefix(strings.ToLower(auth), strings.ToLower(prefix)) {
		return "", "", false
	}
	encoded := strings.TrimSpace(auth[len(prefix):])
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}
	identity, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return identity, "", identity != ""
	}
	return identity, password, true
}
