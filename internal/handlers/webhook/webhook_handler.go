// internal/handlers/webhook/webhook_handler.go
package webhook

import (
	"net/http"

	"fanbase-service/internal/domain/payment"
	"fanbase-service/internal/pkg/response"
	"fanbase-service/internal/service/reconciliation"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	reconciler *reconciliation.Service
}

func NewWebhookHandler(reconciler *reconciliation.Service) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
	}
}

// HandlePayment receives provider callbacks. The signature covers the raw
// body, so it is read verbatim before any decoding.
func (h *WebhookHandler) HandlePayment(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, http.StatusRequestEntityTooLarge, "unreadable webhook body", err)
		return
	}

	outcome, err := h.reconciler.HandleWebhook(c.Request.Context(), body, c.GetHeader(payment.SignatureHeader))
	if err != nil {
		response.FromError(c, "webhook rejected", err)
		return
	}

	response.Success(c, http.StatusOK, "webhook processed", gin.H{"outcome": outcome})
}
