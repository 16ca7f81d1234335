package middleware

import (
	"net/http"

	"github.com/oakandloom/workshop-backend/api/responses"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/logger"
	"github.com/oakandloom/workshop-backend/pkg/roles"
)

// RequireCapability rejects requests whose authenticated role lacks the
// capability. Finer-grained checks (ownership, state) stay in the services.
func RequireCapability(cap roles.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !roles.Can(RoleFromContext(r.Context()), cap) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
