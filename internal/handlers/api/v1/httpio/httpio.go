// Package httpio holds the request helpers shared by the v1 controllers.
package httpio

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"hackspeech/internal/contextutils"
	"hackspeech/internal/services"

	"github.com/go-chi/chi/v5"
)

// MaxJSONBody bounds every JSON request body.
const MaxJSONBody = 1 << 20

const msgInvalidBody = "Corps de requête invalide"

// DecodeJSON reads one JSON object into dst. An empty body leaves dst at its
// zero value so the service reports the missing fields itself.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.NewValidationError("Corps de requête trop volumineux", err)
		}
		return services.NewValidationError(msgInvalidBody, err)
	}
	return nil
}

// UserID returns the authenticated caller. Routes behind RequireAuth always
// have one; a zero means the route was mounted without it.
func UserID(r *http.Request) (int64, error) {
	userID := contextutils.GetUserID(r.Context())
	if userID <= 0 {
		return 0, services.NewUnauthorizedError("Authentification requise")
	}
	return userID, nil
}

// PathID parses a positive integer path parameter.
func PathID(r *http.Request, name, notFound string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.NewNotFoundError(notFound)
	}
	return id, nil
}
