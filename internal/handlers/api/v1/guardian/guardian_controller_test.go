package guardian

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hackspeech/internal/contextutils"
	"hackspeech/internal/models"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockGuardianService links guardian 1 to child 2 only
type mockGuardianService struct {
	linkedCode string
}

func (m *mockGuardianService) Children(ctx context.Context, guardianID int64) ([]*services.ChildOverview, error) {
	if guardianID != 1 {
		return []*services.ChildOverview{}, nil
	}
	return []*services.ChildOverview{{ID: 2, Name: "Léa", IsOnline: true}}, nil
}

func (m *mockGuardianService) Link(ctx context.Context, guardianID int64, req *services.LinkChildRequest) (*services.LinkChildResponse, error) {
	m.linkedCode = req.ChildCode
	if req.ChildCode != "ABC123" {
		return nil, services.NewNotFoundError("Code enfant invalide")
	}
	return &services.LinkChildResponse{Message: "Enfant lié avec succès", Child: models.UserSummary{ID: 2, Name: "Léa"}}, nil
}

func (m *mockGuardianService) ChildStats(ctx context.Context, guardianID, childID int64) (*services.ChildStatsResponse, error) {
	if guardianID != 1 || childID != 2 {
		return nil, services.NewNotFoundError("Enfant non trouvé")
	}
	return &services.ChildStatsResponse{
		Child: services.ChildProfile{ID: 2, Name: "Léa"},
		Stats: services.ChildDetailStats{TotalDetections: 4, SafetyScore: 75},
	}, nil
}

func (m *mockGuardianService) LinkCode(ctx context.Context, userID int64) (*services.LinkCodeResponse, error) {
	return &services.LinkCodeResponse{Code: "ABC123"}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(svc services.GuardianService) http.Handler {
	controller := NewGuardianController(svc, response.NewBuilder(response.DefaultConfig(), zap.NewNop()), zap.NewNop())
	r := chi.NewRouter()
	r.Get("/children", controller.Children)
	r.Post("/link", controller.Link)
	r.Get("/child/{childID}/stats", controller.ChildStats)
	r.Get("/me/code", controller.MyCode)
	return r
}

func do(t *testing.T, h http.Handler, method, target string, userID int64, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req = req.WithContext(contextutils.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestChildren(t *testing.T) {
	h := newRouter(&mockGuardianService{})

	rec, env := do(t, h, http.MethodGet, "/children", 1, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var children []services.ChildOverview
	require.NoError(t, json.Unmarshal(env.Data, &children))
	require.Len(t, children, 1)
	assert.True(t, children[0].IsOnline)
}

func TestLinkController(t *testing.T) {
	svc := &mockGuardianService{}
	h := newRouter(svc)

	rec, env := do(t, h, http.MethodPost, "/link", 1, `{"childCode":"ABC123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ABC123", svc.linkedCode)
	assert.Contains(t, string(env.Data), "Enfant lié avec succès")

	rec, env = do(t, h, http.MethodPost, "/link", 1, `{"childCode":"NOPE00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Code enfant invalide", env.Error.Message)
}

func TestChildStatsController(t *testing.T) {
	h := newRouter(&mockGuardianService{})

	tests := []struct {
		name       string
		target     string
		guardianID int64
		status     int
	}{
		{name: "linked child", target: "/child/2/stats", guardianID: 1, status: http.StatusOK},
		{name: "not a number", target: "/child/abc/stats", guardianID: 1, status: http.StatusNotFound},
		{name: "foreign child", target: "/child/2/stats", guardianID: 5, status: http.StatusNotFound},
		{name: "anonymous", target: "/child/2/stats", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodGet, tt.target, tt.guardianID, "")
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNotFound {
				require.NotNil(t, env.Error)
				assert.Equal(t, "Enfant non trouvé", env.Error.Message)
			}
		})
	}
}

func TestMyCode(t *testing.T) {
	h := newRouter(&mockGuardianService{})

	rec, env := do(t, h, http.MethodGet, "/me/code", 2, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":"ABC123"}`, string(env.Data))
}
