// internal/domain/subscription/dto.go
package subscription

type SubscribeRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=card bank_transfer ussd mobile_money"`
}

// SubscribeResult carries the pending subscription and the URL the client
// opens to complete payment.
type SubscribeResult struct {
	Subscription *UserSubscription `json:"subscription"`
	RedirectURL  string            `json:"redirect_url"`
	Reference    string            `json:"reference"`
}

type SubscriptionListResponse struct {
	Subscriptions []*UserSubscription `json:"subscriptions"`
	Total         int                 `json:"total"`
}

// Actor is the authenticated caller acting on a subscription.
type Actor struct {
	ID      string
	IsAdmin bool
}

// CanAccess reports whether the actor owns sub or administers the platform.
func (a Actor) CanAccess(sub *UserSubscription) bool {
	return a.IsAdmin || (a.ID != "" && a.ID == sub.UserID)
}
