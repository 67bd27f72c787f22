// internal/pkg/validation/validation.go
package validation

import (
	"reflect"
	"sync"

	"fanbase-service/internal/domain/plan"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var once sync.Once

// Register installs the custom rules on gin's validator. Safe to call more
// than once.
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		Install(v)
	})
}

// Install adds the custom rules to v.
func Install(v *validator.Validate) {
	// Decimals validate as their string form so field tags apply to them.
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("positive_decimal", positiveDecimal)
	v.RegisterStructValidation(splitSumsTo100, plan.SplitInput{})
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func positiveDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive()
}

func splitSumsTo100(sl validator.StructLevel) {
	split := sl.Current().Interface().(plan.SplitInput)
	if split.Platform+split.Artist != 100 {
		sl.ReportError(split.Artist, "Artist", "artist", "split100", "")
	}
}
