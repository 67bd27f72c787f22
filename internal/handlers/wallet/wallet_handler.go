// internal/handlers/wallet/wallet_handler.go
package wallet

import (
	"net/http"

	"fanbase-service/internal/domain/wallet"
	"fanbase-service/internal/pkg/events"
	"fanbase-service/internal/pkg/response"
	"fanbase-service/internal/service/ledger"

	"github.com/gin-gonic/gin"
)

// AdminNotifier pushes wallet changes to connected admins.
type AdminNotifier interface {
	NotifyAdmins(event string, data interface{})
}

type WalletHandler struct {
	ledger   *ledger.Service
	notifier AdminNotifier
}

func NewWalletHandler(ledgerService *ledger.Service, notifier AdminNotifier) *WalletHandler {
	return &WalletHandler{
		ledger:   ledgerService,
		notifier: notifier,
	}
}

// GetWallet returns the platform wallet and its transaction history
func (h *WalletHandler) GetWallet(c *gin.Context) {
	w, err := h.ledger.GetWallet(c.Request.Context(), c.Param("currency"))
	if err != nil {
		response.FromError(c, "failed to get wallet", err)
		return
	}

	response.Success(c, http.StatusOK, "wallet retrieved", w)
}

// Withdraw pays platform revenue out of a wallet
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req wallet.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid withdrawal", err)
		return
	}

	entry, err := h.ledger.Withdraw(c.Request.Context(), c.Param("currency"), req.Amount, req.Description)
	if err != nil {
		response.FromError(c, "withdrawal failed", err)
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyAdmins(events.WalletDebited, entry)
	}
	response.Success(c, http.StatusCreated, "withdrawal recorded", entry)
}
