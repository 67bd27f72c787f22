// internal/domain/plan/entity.go
package plan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Price struct {
	Amount   decimal.Decimal `json:"amount" db:"price_amount"`
	Currency string          `json:"currency" db:"price_currency"`
}

// SplitPercentage divides subscription revenue between platform and artist.
// The two shares always sum to 100.
type SplitPercentage struct {
	Platform int `json:"platform" db:"split_platform"`
	Artist   int `json:"artist" db:"split_artist"`
}

func (s SplitPercentage) Valid() bool {
	return s.Platform >= 0 && s.Artist >= 0 && s.Platform+s.Artist == 100
}

type SubscriptionPlan struct {
	ID              string          `json:"id" db:"id"`
	ArtistID        string          `json:"artist_id" db:"artist_id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description,omitempty" db:"description"`
	Price           Price           `json:"price"`
	Benefits        []string        `json:"benefits" db:"benefits"`
	DurationDays    int             `json:"duration" db:"duration_days"`
	SplitPercentage SplitPercentage `json:"split_percentage"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	SubscriberCount int64           `json:"subscriber_count" db:"subscriber_count"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
