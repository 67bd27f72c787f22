// internal/handlers/plan/plan_handler_test.go
package plan

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fanbase-service/internal/domain/artist"
	"fanbase-service/internal/pkg/validation"
	"fanbase-service/internal/repository/memory"
	service "fanbase-service/internal/service/plan"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Register()

	store := memory.New()
	store.AddArtist(&artist.Artist{ID: "artist-1", Name: "Nova"})
	svc := service.NewPlanService(memory.NewPlanRepository(store), memory.NewArtistRepository(store), zap.NewNop())
	h := NewPlanHandler(svc)

	r := gin.New()
	r.POST("/plans/:artistId", h.CreatePlan)
	r.GET("/plans/:artistId", h.ListPlans)
	r.GET("/plans/:artistId/:planId", h.GetPlan)
	r.POST("/plans/:artistId/:planId/deactivate", h.DeactivatePlan)
	return r
}

func do(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

const goldPlan = `{
	"name": "Gold",
	"price": {"amount": "9.99", "currency": "USD"},
	"benefits": ["early access"],
	"duration": 30,
	"split_percentage": {"platform": 20, "artist": 80}
}`

func TestCreateAndListPlans(t *testing.T) {
	r := newRouter(t)

	w, env := do(r, http.MethodPost, "/plans/artist-1", goldPlan)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var created struct {
		ID       string `json:"id"`
		ArtistID string `json:"artist_id"`
		IsActive bool   `json:"is_active"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)

	w, env = do(r, http.MethodGet, "/plans/artist-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)

	w, _ = do(r, http.MethodGet, "/plans/artist-1/"+created.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(r, http.MethodGet, "/plans/artist-2/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePlanRejectsBadInput(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"split not summing to 100", strings.Replace(goldPlan, `"artist": 80`, `"artist": 70`, 1)},
		{"zero price", strings.Replace(goldPlan, `"9.99"`, `"0"`, 1)},
		{"missing name", strings.Replace(goldPlan, `"name": "Gold",`, ``, 1)},
		{"bad currency", strings.Replace(goldPlan, `"USD"`, `"US"`, 1)},
		{"zero duration", strings.Replace(goldPlan, `"duration": 30`, `"duration": 0`, 1)},
		{"malformed json", `{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(r, http.MethodPost, "/plans/artist-1", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.False(t, env.Success)
		})
	}
}

func TestCreatePlanUnknownArtist(t *testing.T) {
	r := newRouter(t)

	w, _ := do(r, http.MethodPost, "/plans/nobody", goldPlan)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeactivatePlanHidesItFromListing(t *testing.T) {
	r := newRouter(t)

	_, env := do(r, http.MethodPost, "/plans/artist-1", goldPlan)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, _ := do(r, http.MethodPost, "/plans/artist-1/"+created.ID+"/deactivate", "")
	require.Equal(t, http.StatusOK, w.Code)

	_, env = do(r, http.MethodGet, "/plans/artist-1", "")
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Zero(t, list.Total)
}
