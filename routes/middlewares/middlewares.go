package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/oauth"

	"github.com/artdubrouski/survey/httpx"
	"github.com/artdubrouski/survey/validate"
)

type contextKey struct{ name string }

var privilegedKey = &contextKey{"privileged"}

// Privilege marks requests carrying an admin bearer token as privileged.
// Requests without an Authorization header pass through anonymously, while a
// token that does not verify is refused with 401.
func Privilege(secret string) func(http.Handler) http.Handler {
	authorize := oauth.Authorize(secret, nil)
	return func(next http.Handler) http.Handler {
		authorized := authorize(privilege(next))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			authorized.ServeHTTP(w, r)
		})
	}
}

func privilege(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
		if hasRole(claims, httpx.RoleAdmin) {
			r = r.WithContext(context.WithValue(r.Context(), privilegedKey, true))
		}
		next.ServeHTTP(w, r)
	})
}

// Admin lets only privileged requests through. It must run after Privilege.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Privileged(r) {
			next.ServeHTTP(w, r)
			return
		}
		if r.Context().Value(oauth.ClaimsContext) == nil {
			httpx.LogRejectedStatus(w, r, http.StatusUnauthorized, "auth.admin.no_token", &validate.Error{
				Kind:    validate.Policy,
				Message: "Authentication credentials were not provided.",
			})
			return
		}
		httpx.LogRejectedStatus(w, r, http.StatusForbidden, "auth.admin.forbidden", &validate.Error{
			Kind:    validate.Policy,
			Message: "You do not have permission to perform this action.",
		})
	})
}

// Privileged reports whether the request was made by an administrator.
func Privileged(r *http.Request) bool {
	ok, _ := r.Context().Value(privilegedKey).(bool)
	return ok
}

func hasRole(claims map[string]string, role string) bool {
	rolesClaim, ok := claims["roles"]
	if !ok {
		return false
	}
	for _, r := range strings.Split(rolesClaim, ",") {
		if strings.TrimSpace(r) == role {
			return true
		}
	}
	return false
}
