// internal/app/router_test.go
package app

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fanbase-service/internal/domain/artist"
	"fanbase-service/internal/domain/payment"
	"fanbase-service/internal/domain/user"
	"fanbase-service/internal/pkg/jwt"
	"fanbase-service/internal/pkg/payprovider"
	"fanbase-service/internal/pkg/validation"
	"fanbase-service/internal/repository/memory"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const webhookSecret = "sk_test_router"

type checkoutProvider struct{}

func (checkoutProvider) Initialize(_ context.Context, in payprovider.InitializeRequest) (*payprovider.InitializeResult, error) {
	return &payprovider.InitializeResult{
		Reference:   in.Reference,
		RedirectURL: "https://checkout.example/" + in.Reference,
	}, nil
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testAPI struct {
	t         *testing.T
	engine    *gin.Engine
	container *Container
	generator *jwt.Generator
}

func newTestAPI(t *testing.T, deps func(*Dependencies)) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Register()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	generator := jwt.NewGenerator(key, "fanbase", "fanbase-users", "test-key", time.Hour)
	verifier := jwt.NewVerifier(&key.PublicKey, "fanbase", "fanbase-users")

	store := memory.New()
	store.AddArtist(&artist.Artist{ID: "artist-1", Name: "Nova", WalletBalance: decimal.Zero})
	store.AddUser(&user.User{ID: "user-1", Email: "fan@example.com"})
	store.AddUser(&user.User{ID: "user-2", Email: "other@example.com"})

	d := Dependencies{
		Repos:          NewMemoryRepositories(store),
		Payments:       checkoutProvider{},
		Verifier:       verifier,
		WebhookSecret:  webhookSecret,
		CallbackURL:    "https://fanbase.example/callback",
		PaymentTimeout: time.Second,
		Logger:         zap.NewNop(),
	}
	if deps != nil {
		deps(&d)
	}
	container := NewContainer(d)

	engine := gin.New()
	SetupRouter(engine, zap.NewNop(), container.Handlers)

	return &testAPI{t: t, engine: engine, container: container, generator: generator}
}

func (a *testAPI) token(identityID string, roles ...string) string {
	a.t.Helper()
	token, _, err := a.generator.GenerateAccessToken(identityID, roles)
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token, body string, headers ...string) (int, envelope) {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func (a *testAPI) createPlan(token string) string {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/v1/plans/artist-1", token, `{
		"name": "Gold",
		"price": {"amount": "9.99", "currency": "USD"},
		"duration": 30,
		"split_percentage": {"platform": 20, "artist": 80}
	}`)
	require.Equal(a.t, http.StatusCreated, code, env.Error)

	var p struct {
		ID string `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &p))
	return p.ID
}

func (a *testAPI) webhook(reference, status string, amountMinor int64) (int, envelope) {
	a.t.Helper()
	body := fmt.Sprintf(`{"reference":%q,"status":%q,"data":{"amount":%d,"currency":"USD"}}`, reference, status, amountMinor)
	signature := payprovider.Sign([]byte(webhookSecret), []byte(body))
	return a.do(http.MethodPost, "/api/v1/webhooks/payment", "", body, payment.SignatureHeader, signature)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)

	code, _ := api.do(http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestSubscribeAndSettleFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	artistToken := api.token("artist-1", jwt.RoleArtist)
	fanToken := api.token("user-1", jwt.RoleUser)
	adminToken := api.token("admin-1", jwt.RoleAdmin)

	planID := api.createPlan(artistToken)

	code, env := api.do(http.MethodPost, "/api/v1/users/user-1/subscriptions/"+planID, fanToken, `{"payment_method":"card"}`)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var pending struct {
		Subscription struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"subscription"`
		RedirectURL string `json:"redirect_url"`
		Reference   string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	assert.Equal(t, "pending", pending.Subscription.Status)
	assert.NotEmpty(t, pending.RedirectURL)

	code, env = api.webhook(pending.Reference, "success", 999)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.JSONEq(t, `{"outcome":"activated"}`, string(env.Data))

	// A redelivery is acknowledged without crediting again.
	code, env = api.webhook(pending.Reference, "success", 999)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"outcome":"already_processed"}`, string(env.Data))

	code, env = api.do(http.MethodGet, "/api/v1/subscriptions/"+pending.Subscription.ID, fanToken, "")
	require.Equal(t, http.StatusOK, code, env.Error)
	var active struct {
		Status         string `json:"status"`
		PaymentHistory []struct {
			Status        string `json:"status"`
			TransactionID string `json:"transaction_id"`
		} `json:"payment_history"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &active))
	assert.Equal(t, "active", active.Status)
	require.Len(t, active.PaymentHistory, 1)
	assert.Equal(t, "success", active.PaymentHistory[0].Status)
	assert.Equal(t, pending.Reference, active.PaymentHistory[0].TransactionID)

	code, env = api.do(http.MethodGet, "/api/v1/users/user-1/subscriptions", fanToken, "")
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)

	code, env = api.do(http.MethodGet, "/api/v1/admin/wallets/USD", adminToken, "")
	require.Equal(t, http.StatusOK, code, env.Error)
	var w struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &w))
	assert.True(t, decimal.RequireFromString("1.998").Equal(w.Balance), w.Balance.String())

	code, env = api.do(http.MethodPost, "/api/v1/subscriptions/"+pending.Subscription.ID+"/cancel", fanToken, "")
	require.Equal(t, http.StatusOK, code, env.Error)
	var cancelled struct {
		Status    string `json:"status"`
		AutoRenew bool   `json:"auto_renew"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, "active", cancelled.Status)
	assert.False(t, cancelled.AutoRenew)

	code, env = api.do(http.MethodPost, "/api/v1/admin/wallets/USD/withdraw", adminToken, `{"amount":"1.5","description":"payout"}`)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, _ = api.do(http.MethodPost, "/api/v1/admin/wallets/USD/withdraw", adminToken, `{"amount":"5","description":"too much"}`)
	assert.Equal(t, http.StatusConflict, code)
}

func TestAccessControl(t *testing.T) {
	api := newTestAPI(t, nil)
	artistToken := api.token("artist-1", jwt.RoleArtist)
	fanToken := api.token("user-1", jwt.RoleUser)
	otherToken := api.token("user-2", jwt.RoleUser)
	planID := api.createPlan(artistToken)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"plan creation needs a token", http.MethodPost, "/api/v1/plans/artist-1", "", `{}`, http.StatusUnauthorized},
		{"plan creation for another artist", http.MethodPost, "/api/v1/plans/artist-1", fanToken, `{}`, http.StatusForbidden},
		{"subscribe on behalf of another user", http.MethodPost, "/api/v1/users/user-1/subscriptions/" + planID, otherToken, `{"payment_method":"card"}`, http.StatusForbidden},
		{"wallet is admin only", http.MethodGet, "/api/v1/admin/wallets/USD", fanToken, "", http.StatusForbidden},
		{"garbage token", http.MethodGet, "/api/v1/users/user-1/subscriptions", "not-a-jwt", "", http.StatusUnauthorized},
		{"listing plans is public", http.MethodGet, "/api/v1/plans/artist-1", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := api.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestSubscriptionVisibleOnlyToOwner(t *testing.T) {
	api := newTestAPI(t, nil)
	planID := api.createPlan(api.token("artist-1", jwt.RoleArtist))
	fanToken := api.token("user-1", jwt.RoleUser)

	code, env := api.do(http.MethodPost, "/api/v1/users/user-1/subscriptions/"+planID, fanToken, `{"payment_method":"card"}`)
	require.Equal(t, http.StatusCreated, code)
	var pending struct {
		Subscription struct {
			ID string `json:"id"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	path := "/api/v1/subscriptions/" + pending.Subscription.ID

	code, _ = api.do(http.MethodGet, path, fanToken, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodGet, path, api.token("user-2", jwt.RoleUser), "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodGet, path, api.token("admin-1", jwt.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodPost, path+"/cancel", api.token("user-2", jwt.RoleUser), "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestSecondSubscribeToSameArtistConflicts(t *testing.T) {
	api := newTestAPI(t, nil)
	planID := api.createPlan(api.token("artist-1", jwt.RoleArtist))
	fanToken := api.token("user-1", jwt.RoleUser)
	path := "/api/v1/users/user-1/subscriptions/" + planID

	code, env := api.do(http.MethodPost, path, fanToken, `{"payment_method":"card"}`)
	require.Equal(t, http.StatusCreated, code)
	var pending struct {
		Reference string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pending))

	code, _ = api.webhook(pending.Reference, "success", 999)
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodPost, path, fanToken, `{"payment_method":"card"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)

	code, _ = api.do(http.MethodPost, path, fanToken, `{"payment_method":"cheque"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSubscribeIsRateLimited(t *testing.T) {
	api := newTestAPI(t, func(d *Dependencies) { d.Limiter = denyAll{} })
	planID := api.createPlan(api.token("artist-1", jwt.RoleArtist))

	code, env := api.do(http.MethodPost, "/api/v1/users/user-1/subscriptions/"+planID, api.token("user-1", jwt.RoleUser), `{"payment_method":"card"}`)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.False(t, env.Success)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	api := newTestAPI(t, nil)

	body := `{"reference":"ref-1","status":"success","data":{"amount":999,"currency":"USD"}}`
	code, _ := api.do(http.MethodPost, "/api/v1/webhooks/payment", "", body, payment.SignatureHeader, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodPost, "/api/v1/webhooks/payment", "", body)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestWebhookUnknownReference(t *testing.T) {
	api := newTestAPI(t, nil)

	code, _ := api.webhook("missing", "success", 999)
	assert.Equal(t, http.StatusNotFound, code)
}
