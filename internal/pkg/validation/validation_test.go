// internal/pkg/validation/validation_test.go
package validation

import (
	"testing"

	"fanbase-service/internal/domain/plan"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	Install(v)
	return v
}

func validRequest() plan.CreatePlanRequest {
	return plan.CreatePlanRequest{
		Name:            "Inner Circle",
		Price:           plan.PriceInput{Amount: decimal.RequireFromString("9.99"), Currency: "USD"},
		DurationDays:    30,
		SplitPercentage: plan.SplitInput{Platform: 20, Artist: 80},
	}
}

func TestCreatePlanRequestValidation(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name    string
		mutate  func(r *plan.CreatePlanRequest)
		wantErr bool
	}{
		{"valid", func(r *plan.CreatePlanRequest) {}, false},
		{"split over 100", func(r *plan.CreatePlanRequest) { r.SplitPercentage.Artist = 90 }, true},
		{"split under 100", func(r *plan.CreatePlanRequest) { r.SplitPercentage = plan.SplitInput{Platform: 10, Artist: 10} }, true},
		{"all to artist", func(r *plan.CreatePlanRequest) { r.SplitPercentage = plan.SplitInput{Platform: 0, Artist: 100} }, false},
		{"zero price", func(r *plan.CreatePlanRequest) { r.Price.Amount = decimal.Zero }, true},
		{"negative price", func(r *plan.CreatePlanRequest) { r.Price.Amount = decimal.NewFromInt(-1) }, true},
		{"bad currency", func(r *plan.CreatePlanRequest) { r.Price.Currency = "US" }, true},
		{"zero duration", func(r *plan.CreatePlanRequest) { r.DurationDays = 0 }, true},
		{"missing name", func(r *plan.CreatePlanRequest) { r.Name = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := v.Struct(req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
