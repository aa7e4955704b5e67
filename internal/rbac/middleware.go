package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/posledger/posledger/internal/platform/httpx"
	"github.com/posledger/posledger/internal/shared"
)

// Middleware wires role checks for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuthenticated rejects requests without a logged in session.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !PrincipalFromContext(r.Context(), m.Logger).Authenticated() {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole ensures the current user holds one of the given roles.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context(), m.Logger)
			if !principal.Authenticated() {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if _, ok := allowed[principal.Role]; !ok {
				if m.Logger != nil {
					m.Logger.Warn("rbac role denied",
						slog.Int64("user_id", principal.UserID),
						slog.String("role", string(principal.Role)),
						slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromRequest resolves the session principal of r.
func PrincipalFromRequest(r *http.Request) Principal {
	return PrincipalFromContext(r.Context(), nil)
}

// PrincipalFromContext resolves the principal stored in the request session.
func PrincipalFromContext(ctx context.Context, logger *slog.Logger) Principal {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		return Anonymous
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return Anonymous
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if logger != nil {
			logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return Anonymous
	}
	return Principal{UserID: id, Role: ParseRole(sess.Get(shared.SessionRoleKey))}
}
