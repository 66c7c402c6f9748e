package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hackspeech/internal/models"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAuthService struct {
	lastState string
}

func (m *mockAuthService) Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResponse, error) {
	if req.Email == "taken@hackspeech.fr" {
		return nil, services.NewConflictError("Cet email est déjà utilisé", "EMAIL_TAKEN")
	}
	return &services.AuthResponse{
		Token:     "jwt",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      &models.UserProfile{ID: 1, Email: req.Email, Name: req.Name},
	}, nil
}

func (m *mockAuthService) Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResponse, error) {
	if req.Password != "secret1" {
		return nil, services.NewUnauthorizedError("Email ou mot de passe incorrect")
	}
	return &services.AuthResponse{Token: "jwt", User: &models.UserProfile{ID: 1, Email: req.Email}}, nil
}

func (m *mockAuthService) GoogleLogin(ctx context.Context, req *services.GoogleLoginRequest) (*services.AuthResponse, error) {
	return &services.AuthResponse{Token: "jwt", User: &models.UserProfile{ID: 2, Email: req.Email}}, nil
}

func (m *mockAuthService) GoogleAuthURL(state string) (string, error) {
	m.lastState = state
	return "https://accounts.google.com/o/oauth2/auth?state=" + state, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func newController(svc services.AuthService) *AuthController {
	return NewAuthController(svc, response.NewBuilder(response.DefaultConfig(), zap.NewNop()), zap.NewNop())
}

func post(t *testing.T, handler http.HandlerFunc, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestRegister(t *testing.T) {
	controller := newController(&mockAuthService{})

	rec, env := post(t, controller.Register, `{"email":"lea@hackspeech.fr","password":"secret1","name":"Léa"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var auth services.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	assert.Equal(t, "jwt", auth.Token)
	assert.Equal(t, "Léa", auth.User.Name)

	rec, env = post(t, controller.Register, `{"email":"taken@hackspeech.fr","password":"secret1","name":"Léa"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "EMAIL_TAKEN", env.Error.Code)
}

func TestLogin(t *testing.T) {
	controller := newController(&mockAuthService{})

	rec, _ := post(t, controller.Login, `{"email":"lea@hackspeech.fr","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := post(t, controller.Login, `{"email":"lea@hackspeech.fr","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Email ou mot de passe incorrect", env.Error.Message)

	rec, env = post(t, controller.Login, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.ErrorTypeValidation, env.Error.Type)
}

func TestGoogleAuthURL(t *testing.T) {
	svc := &mockAuthService{}
	controller := newController(svc)

	rec := httptest.NewRecorder()
	controller.GoogleAuthURL(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/url", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data["state"])
	assert.Equal(t, svc.lastState, data["state"])
	assert.True(t, strings.HasSuffix(data["url"], data["state"]))
}
