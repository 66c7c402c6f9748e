package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hackspeech/internal/cache"
	"hackspeech/internal/contextutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubResolver map[string]int64

func (s stubResolver) ResolveUser(token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("invalid token")
}

type envelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]int64{"userId": contextutils.GetUserID(r.Context())})
}

func TestRequireAuth(t *testing.T) {
	auth := NewAuthMiddleware(stubResolver{"good": 42}, zap.NewNop())
	handler := auth.RequireAuth(http.HandlerFunc(echoUser))

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		status   int
		wantUser int64
		message  string
	}{
		{
			name:     "bearer header",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			status:   http.StatusOK,
			wantUser: 42,
		},
		{
			name:    "missing token",
			setup:   func(r *http.Request) {},
			status:  http.StatusUnauthorized,
			message: msgAuthRequired,
		},
		{
			name:    "unknown token",
			setup:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			status:  http.StatusUnauthorized,
			message: msgInvalidToken,
		},
		{
			name:    "wrong scheme",
			setup:   func(r *http.Request) { r.Header.Set("Authorization", "Basic good") },
			status:  http.StatusUnauthorized,
			message: msgAuthRequired,
		},
		{
			name:    "query token ignored outside websocket",
			setup:   func(r *http.Request) { r.URL.RawQuery = "token=good" },
			status:  http.StatusUnauthorized,
			message: msgAuthRequired,
		},
		{
			name: "query token on websocket upgrade",
			setup: func(r *http.Request) {
				r.URL.RawQuery = "token=good"
				r.Header.Set("Upgrade", "websocket")
			},
			status:   http.StatusOK,
			wantUser: 42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				var body map[string]int64
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantUser, body["userId"])
				return
			}
			body := decodeEnvelope(t, rec)
			require.NotNil(t, body.Error)
			assert.Equal(t, "UNAUTHORIZED", body.Error.Type)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	memory := cache.NewMemoryCache(&cache.Config{MaxKeys: 100}, zap.NewNop())
	limiter := NewRateLimiter(memory, &RateLimiterConfig{Enabled: true, Limit: 2, Window: time.Minute}, zap.NewNop())
	limiter.now = func() time.Time { return time.Date(2026, time.October, 14, 12, 0, 30, 0, time.UTC) }

	handler := limiter.Limit("analyze")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(userID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/detection/analyze", nil)
		req = req.WithContext(contextutils.WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call(1).Code)
	second := call(1)
	assert.Equal(t, http.StatusNoContent, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := call(1)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "31", blocked.Header().Get("Retry-After"))
	body := decodeEnvelope(t, blocked)
	require.NotNil(t, body.Error)
	assert.Equal(t, "RATE_LIMIT", body.Error.Type)

	// counters are per user
	assert.Equal(t, http.StatusNoContent, call(2).Code)

	// a new window starts fresh
	limiter.now = func() time.Time { return time.Date(2026, time.October, 14, 12, 1, 0, 0, time.UTC) }
	assert.Equal(t, http.StatusNoContent, call(1).Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(nil, &RateLimiterConfig{Enabled: false}, zap.NewNop())
	handler := limiter.Limit("chat")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	handler := CORS(DefaultCORSConfig([]string{"https://app.hackspeech.fr", "*.preview.dev"}))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	preflight := httptest.NewRequest(http.MethodOptions, "/api/v1/detection/analyze", nil)
	preflight.Header.Set("Origin", "https://app.hackspeech.fr")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.hackspeech.fr", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	sub := httptest.NewRequest(http.MethodGet, "/", nil)
	sub.Header.Set("Origin", "https://pr-12.preview.dev")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, sub)
	assert.Equal(t, "https://pr-12.preview.dev", rec.Header().Get("Access-Control-Allow-Origin"))

	foreign := httptest.NewRequest(http.MethodGet, "/", nil)
	foreign.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, foreign)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	handler := Recovery(nil, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Type)
	assert.Equal(t, "PANIC", body.Error.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRequestIDAndLogging(t *testing.T) {
	var seenID string
	handler := Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenID = contextutils.GetRequestID(r.Context())
			w.WriteHeader(http.StatusAccepted)
		}),
		RequestID(zap.NewNop()),
		StructuredLogging(nil),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/dashboard", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get(HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "upstream-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", seenID)
}

func TestSanitizeQuery(t *testing.T) {
	q := map[string][]string{"token": {"secret-jwt"}, "limit": {"10"}}
	out := sanitizeQuery(q, DefaultLoggingConfig().SensitiveParams)
	assert.Contains(t, out, "limit=10")
	assert.NotContains(t, out, "secret-jwt")
}
