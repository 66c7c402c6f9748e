// File: internal/response/status.go
package response

import (
	"net/http"
	"strconv"
	"strings"

	"hackspeech/internal/services"
)

// ===============================
// QUERY HELPERS
// ===============================

// ParseLimit reads the "limit" query parameter. Missing, malformed or
// non-positive values yield 0 so services apply their own default.
func ParseLimit(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// ===============================
// HEALTH CHECK RESPONSES
// ===============================

// WriteHealthCheck writes a health report, answering 503 when the system is not healthy
func (b *Builder) WriteHealthCheck(w http.ResponseWriter, r *http.Request, healthy bool, report interface{}) {
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	b.WriteJSON(w, r, b.Success(r.Context(), report), code)
}

// ===============================
// ROUTER FALLBACKS
// ===============================

// WriteNotFound answers unknown routes
func (b *Builder) WriteNotFound(w http.ResponseWriter, r *http.Request) {
	b.WriteError(w, r, services.NewNotFoundError("Route non trouvée"))
}

// WriteMethodNotAllowed answers known routes hit with the wrong verb
func (b *Builder) WriteMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	b.WriteJSON(w, r, b.Error(r.Context(), &services.ServiceError{
		Type:       "METHOD_NOT_ALLOWED",
		Message:    "Méthode non autorisée",
		StatusCode: http.StatusMethodNotAllowed,
	}), http.StatusMethodNotAllowed)
}
