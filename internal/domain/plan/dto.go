// internal/domain/plan/dto.go
package plan

import "github.com/shopspring/decimal"

type PriceInput struct {
	Amount   decimal.Decimal `json:"amount" binding:"positive_decimal"`
	Currency string          `json:"currency" binding:"required,len=3,alpha"`
}

type SplitInput struct {
	Platform int `json:"platform" binding:"min=0,max=100"`
	Artist   int `json:"artist" binding:"min=0,max=100"`
}

// CreatePlanRequest is validated by gin binding. A struct-level rule rejects
// splits whose shares do not sum to 100.
type CreatePlanRequest struct {
	Name            string     `json:"name" binding:"required,max=120"`
	Description     string     `json:"description" binding:"max=2000"`
	Price           PriceInput `json:"price"`
	Benefits        []string   `json:"benefits" binding:"omitempty,dive,required,max=200"`
	DurationDays    int        `json:"duration" binding:"required,min=1,max=3660"`
	SplitPercentage SplitInput `json:"split_percentage"`
}

type PlanListResponse struct {
	Plans []*SubscriptionPlan `json:"plans"`
	Total int                 `json:"total"`
}
