// internal/domain/subscription/entity.go
package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	StatusPending   SubscriptionStatus = "pending"
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// PendingTransactionID marks a payment entry created before the provider
// handed back its reference.
const PendingTransactionID = "pending"

type PaymentEntry struct {
	ID            string          `json:"id" db:"id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	Status        PaymentStatus   `json:"status" db:"status"`
	Timestamp     time.Time       `json:"timestamp" db:"created_at"`
}

type UserSubscription struct {
	ID               string             `json:"id" db:"id"`
	UserID           string             `json:"user_id" db:"user_id"`
	PlanID           string             `json:"plan_id" db:"plan_id"`
	ArtistID         string             `json:"artist_id" db:"artist_id"`
	Status           SubscriptionStatus `json:"status" db:"status"`
	StartDate        time.Time          `json:"start_date" db:"start_date"`
	EndDate          time.Time          `json:"end_date" db:"end_date"`
	AutoRenew        bool               `json:"auto_renew" db:"auto_renew"`
	CancellationDate *time.Time         `json:"cancellation_date,omitempty" db:"cancellation_date"`
	LastRenewalDate  *time.Time         `json:"last_renewal_date,omitempty" db:"last_renewal_date"`
	NextRenewalDate  *time.Time         `json:"next_renewal_date,omitempty" db:"next_renewal_date"`
	PaymentHistory   []PaymentEntry     `json:"payment_history"`
	Version          int64              `json:"version" db:"version"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// PaymentByReference returns the index of the payment entry carrying the
// provider reference, or -1.
func (s *UserSubscription) PaymentByReference(reference string) int {
	for i := range s.PaymentHistory {
		if s.PaymentHistory[i].TransactionID == reference {
			return i
		}
	}
	return -1
}

func (s *UserSubscription) IsCancelled() bool {
	return s.CancellationDate != nil
}

// Clone returns a deep copy. Stores hand out clones so callers never alias
// persisted state.
func (s *UserSubscription) Clone() *UserSubscription {
	out := *s
	out.PaymentHistory = append([]PaymentEntry(nil), s.PaymentHistory...)
	out.CancellationDate = cloneTime(s.CancellationDate)
	out.LastRenewalDate = cloneTime(s.LastRenewalDate)
	out.NextRenewalDate = cloneTime(s.NextRenewalDate)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
