// internal/repository/mongo/documents.go
package mongo

import (
	"time"

	"fanbase-service/internal/domain/plan"
	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/domain/wallet"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type priceDoc struct {
	Amount   bson.Decimal128 `bson:"amount"`
	Currency string          `bson:"currency"`
}

type splitDoc struct {
	Platform int `bson:"platform"`
	Artist   int `bson:"artist"`
}

type planDoc struct {
	ID              string    `bson:"_id"`
	ArtistID        string    `bson:"artistId"`
	Name            string    `bson:"name"`
	Description     string    `bson:"description"`
	Price           priceDoc  `bson:"price"`
	Benefits        []string  `bson:"benefits"`
	Duration        int       `bson:"duration"`
	SplitPercentage splitDoc  `bson:"splitPercentage"`
	IsActive        bool      `bson:"isActive"`
	SubscriberCount int64     `bson:"subscriberCount"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

type paymentDoc struct {
	ID            string          `bson:"id"`
	Amount        bson.Decimal128 `bson:"amount"`
	Currency      string          `bson:"currency"`
	PaymentMethod string          `bson:"paymentMethod"`
	TransactionID string          `bson:"transactionId"`
	Status        string          `bson:"status"`
	Timestamp     time.Time       `bson:"timestamp"`
}

type subscriptionDoc struct {
	ID               string       `bson:"_id"`
	UserID           string       `bson:"userId"`
	PlanID           string       `bson:"planId"`
	ArtistID         string       `bson:"artistId"`
	Status           string       `bson:"status"`
	StartDate        time.Time    `bson:"startDate"`
	EndDate          time.Time    `bson:"endDate"`
	AutoRenew        bool         `bson:"autoRenew"`
	CancellationDate *time.Time   `bson:"cancellationDate,omitempty"`
	LastRenewalDate  *time.Time   `bson:"lastRenewalDate,omitempty"`
	NextRenewalDate  *time.Time   `bson:"nextRenewalDate,omitempty"`
	PaymentHistory   []paymentDoc `bson:"paymentHistory"`
	Version          int64        `bson:"version"`
	CreatedAt        time.Time    `bson:"createdAt"`
	UpdatedAt        time.Time    `bson:"updatedAt"`
}

type walletTxDoc struct {
	ID           string          `bson:"id"`
	Amount       bson.Decimal128 `bson:"amount"`
	Currency     string          `bson:"currency"`
	Type         string          `bson:"type"`
	Description  string          `bson:"description"`
	BalanceAfter bson.Decimal128 `bson:"balanceAfter"`
	Timestamp    time.Time       `bson:"timestamp"`
}

type walletDoc struct {
	Currency     string          `bson:"_id"`
	Balance      bson.Decimal128 `bson:"balance"`
	Transactions []walletTxDoc   `bson:"transactions"`
	Version      int64           `bson:"version"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

type artistDoc struct {
	ID     string `bson:"_id"`
	Name   string `bson:"name"`
	Wallet struct {
		Balance bson.Decimal128 `bson:"balance"`
	} `bson:"wallet"`
}

type userDoc struct {
	ID    string `bson:"_id"`
	Email string `bson:"email"`
	Name  string `bson:"name"`
}

// ──────────────────────────────────────────────────
// Decimal conversion
// ──────────────────────────────────────────────────

func toDecimal128(d decimal.Decimal) bson.Decimal128 {
	v, err := bson.ParseDecimal128(d.String())
	if err != nil {
		// More than 34 significant digits; store at ledger precision.
		v, _ = bson.ParseDecimal128(d.Round(6).String())
	}
	return v
}

func fromDecimal128(v bson.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ──────────────────────────────────────────────────
// Plan conversion
// ──────────────────────────────────────────────────

func toPlanDoc(p *plan.SubscriptionPlan) *planDoc {
	benefits := p.Benefits
	if benefits == nil {
		benefits = []string{}
	}
	return &planDoc{
		ID:              p.ID,
		ArtistID:        p.ArtistID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           priceDoc{Amount: toDecimal128(p.Price.Amount), Currency: p.Price.Currency},
		Benefits:        benefits,
		Duration:        p.DurationDays,
		SplitPercentage: splitDoc{Platform: p.SplitPercentage.Platform, Artist: p.SplitPercentage.Artist},
		IsActive:        p.IsActive,
		SubscriberCount: p.SubscriberCount,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func fromPlanDoc(m *planDoc) *plan.SubscriptionPlan {
	return &plan.SubscriptionPlan{
		ID:              m.ID,
		ArtistID:        m.ArtistID,
		Name:            m.Name,
		Description:     m.Description,
		Price:           plan.Price{Amount: fromDecimal128(m.Price.Amount), Currency: m.Price.Currency},
		Benefits:        m.Benefits,
		DurationDays:    m.Duration,
		SplitPercentage: plan.SplitPercentage{Platform: m.SplitPercentage.Platform, Artist: m.SplitPercentage.Artist},
		IsActive:        m.IsActive,
		SubscriberCount: m.SubscriberCount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Subscription conversion
// ──────────────────────────────────────────────────

func toSubscriptionDoc(s *subscription.UserSubscription) *subscriptionDoc {
	history := make([]paymentDoc, len(s.PaymentHistory))
	for i, e := range s.PaymentHistory {
		history[i] = toPaymentDoc(e)
	}
	return &subscriptionDoc{
		ID:               s.ID,
		UserID:           s.UserID,
		PlanID:           s.PlanID,
		ArtistID:         s.ArtistID,
		Status:           string(s.Status),
		StartDate:        s.StartDate,
		EndDate:          s.EndDate,
		AutoRenew:        s.AutoRenew,
		CancellationDate: s.CancellationDate,
		LastRenewalDate:  s.LastRenewalDate,
		NextRenewalDate:  s.NextRenewalDate,
		PaymentHistory:   history,
		Version:          s.Version,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func toPaymentDoc(e subscription.PaymentEntry) paymentDoc {
	return paymentDoc{
		ID:            e.ID,
		Amount:        toDecimal128(e.Amount),
		Currency:      e.Currency,
		PaymentMethod: e.PaymentMethod,
		TransactionID: e.TransactionID,
		Status:        string(e.Status),
		Timestamp:     e.Timestamp,
	}
}

func fromSubscriptionDoc(m *subscriptionDoc) *subscription.UserSubscription {
	history := make([]subscription.PaymentEntry, len(m.PaymentHistory))
	for i, e := range m.PaymentHistory {
		history[i] = subscription.PaymentEntry{
			ID:            e.ID,
			Amount:        fromDecimal128(e.Amount),
			Currency:      e.Currency,
			PaymentMethod: e.PaymentMethod,
			TransactionID: e.TransactionID,
			Status:        subscription.PaymentStatus(e.Status),
			Timestamp:     e.Timestamp,
		}
	}
	return &subscription.UserSubscription{
		ID:               m.ID,
		UserID:           m.UserID,
		PlanID:           m.PlanID,
		ArtistID:         m.ArtistID,
		Status:           subscription.SubscriptionStatus(m.Status),
		StartDate:        m.StartDate,
		EndDate:          m.EndDate,
		AutoRenew:        m.AutoRenew,
		CancellationDate: m.CancellationDate,
		LastRenewalDate:  m.LastRenewalDate,
		NextRenewalDate:  m.NextRenewalDate,
		PaymentHistory:   history,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Wallet conversion
// ──────────────────────────────────────────────────

func fromWalletDoc(m *walletDoc) *wallet.PlatformWallet {
	txs := make([]wallet.WalletTransaction, len(m.Transactions))
	for i, t := range m.Transactions {
		txs[i] = wallet.WalletTransaction{
			ID:           t.ID,
			Amount:       fromDecimal128(t.Amount),
			Currency:     t.Currency,
			Type:         wallet.TransactionType(t.Type),
			Description:  t.Description,
			BalanceAfter: fromDecimal128(t.BalanceAfter),
			Timestamp:    t.Timestamp,
		}
	}
	return &wallet.PlatformWallet{
		Currency:     m.Currency,
		Balance:      fromDecimal128(m.Balance),
		Transactions: txs,
		Version:      m.Version,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
