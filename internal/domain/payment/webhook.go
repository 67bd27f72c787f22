// internal/domain/payment/webhook.go
package payment

// WebhookPayload is the provider callback body. It is decoded only after
// the signature over the raw bytes checks out.
type WebhookPayload struct {
	Reference string      `json:"reference"`
	Status    string      `json:"status"`
	Data      WebhookData `json:"data"`
}

type WebhookData struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

const (
	WebhookStatusSuccess = "success"
	WebhookStatusFailed  = "failed"
)

// SignatureHeader carries hex(HMAC-SHA512(secret, body)).
const SignatureHeader = "X-Provider-Signature"
