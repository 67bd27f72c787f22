// internal/handlers/wallet/wallet_handler_test.go
package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fanbase-service/internal/domain/wallet"
	"fanbase-service/internal/pkg/events"
	"fanbase-service/internal/pkg/validation"
	"fanbase-service/internal/repository/memory"
	"fanbase-service/internal/service/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct{ events []string }

func (n *recordingNotifier) NotifyAdmins(event string, _ interface{}) {
	n.events = append(n.events, event)
}

func setup(t *testing.T) (*gin.Engine, *recordingNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Register()

	store := memory.New()
	svc := ledger.NewService(memory.NewPlatformWalletRepository(store), nil, zap.NewNop())
	_, err := svc.Credit(context.Background(), "USD", decimal.RequireFromString("10"), wallet.TransactionSubscription, "seed")
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	h := NewWalletHandler(svc, notifier)

	r := gin.New()
	r.GET("/wallets/:currency", h.GetWallet)
	r.POST("/wallets/:currency/withdraw", h.Withdraw)
	return r, notifier
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWithdrawNotifiesAdmins(t *testing.T) {
	r, notifier := setup(t)

	w := post(r, "/wallets/usd/withdraw", `{"amount":"4","description":"monthly payout"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{events.WalletDebited}, notifier.events)
	assert.Contains(t, w.Body.String(), `"balance_after":"6"`)
}

func TestWithdrawRejections(t *testing.T) {
	r, notifier := setup(t)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"overdraw", "/wallets/USD/withdraw", `{"amount":"11","description":"too much"}`, http.StatusConflict},
		{"negative amount", "/wallets/USD/withdraw", `{"amount":"-1","description":"refund"}`, http.StatusBadRequest},
		{"missing description", "/wallets/USD/withdraw", `{"amount":"1"}`, http.StatusBadRequest},
		{"empty wallet", "/wallets/EUR/withdraw", `{"amount":"1","description":"payout"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, notifier.events)
}

func TestGetWallet(t *testing.T) {
	r, _ := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/wallets/USD", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":"10"`)
}
