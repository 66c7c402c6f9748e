package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hackspeech/internal/contextutils"
	"hackspeech/internal/models"
	"hackspeech/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteSuccess(t *testing.T) {
	b := NewBuilder(DefaultConfig(), zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(contextutils.WithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()

	b.WriteSuccess(rec, req, map[string]int{"points": 15})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	body := decode(t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, "req-1", body.RequestID)
	assert.Equal(t, "v1", body.Version)
	assert.NotZero(t, body.Timestamp)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		err     error
		status  int
		errType string
		message string
	}{
		{
			name:    "not found",
			config:  DefaultConfig(),
			err:     services.NewNotFoundError("Enfant non trouvé"),
			status:  http.StatusNotFound,
			errType: services.ErrorTypeNotFound,
			message: "Enfant non trouvé",
		},
		{
			name:    "plain error becomes internal",
			config:  DefaultConfig(),
			err:     errors.New("pq: connection refused"),
			status:  http.StatusInternalServerError,
			errType: services.ErrorTypeInternal,
		},
		{
			name:    "rate limit",
			config:  DefaultConfig(),
			err:     services.NewRateLimitError("Trop de requêtes", nil),
			status:  http.StatusTooManyRequests,
			errType: services.ErrorTypeRateLimit,
			message: "Trop de requêtes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(tt.config, zap.NewNop())
			rec := httptest.NewRecorder()
			b.WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.errType, body.Error.Type)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Error.Message)
			}
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestWriteError_DevelopmentShowsCause(t *testing.T) {
	b := NewBuilder(DevelopmentConfig(), zap.NewNop())
	rec := httptest.NewRecorder()
	internal := services.NewInternalError("Erreur serveur")
	internal.Cause = errors.New("pq: connection refused")

	b.WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), internal)

	body := decode(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "pq: connection refused", body.Error.Details["cause"])
}

func TestWriteError_ValidationFields(t *testing.T) {
	var fields models.ValidationErrors
	fields.Add("email", "adresse email invalide", "email", nil)

	rec := httptest.NewRecorder()
	NewBuilder(nil, nil).WriteError(rec, httptest.NewRequest(http.MethodPost, "/", nil),
		services.NewValidationError("Données d'inscription invalides", fields))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	require.NotNil(t, body.Error)
	assert.Contains(t, body.Error.Details, "fields")
}

func TestMiddlewareAndQuickError(t *testing.T) {
	b := NewBuilder(DevelopmentConfig(), zap.NewNop())
	var seen *Builder
	handler := Middleware(b)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetBuilder(r.Context())
		QuickError(w, r, services.NewForbiddenError("Accès refusé"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Same(t, b, seen)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// without the middleware a default builder is used
	rec = httptest.NewRecorder()
	QuickSuccess(rec, httptest.NewRequest(http.MethodGet, "/", nil), "ok")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseLimit(t *testing.T) {
	for query, want := range map[string]int{"": 0, "limit=5": 5, "limit=-3": 0, "limit=abc": 0, "limit=%2010%20": 10} {
		req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
		assert.Equal(t, want, ParseLimit(req), query)
	}
}

func TestRouterFallbacksAndHealth(t *testing.T) {
	b := NewBuilder(nil, nil)

	rec := httptest.NewRecorder()
	b.WriteMethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decode(t, rec).Error.Type)

	rec = httptest.NewRecorder()
	b.WriteHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil), false, map[string]string{"status": "unhealthy"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, decode(t, rec).Success)
}
