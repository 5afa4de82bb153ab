package validation

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Violations maps a field name to a stable error code ("required", "too_long", ...).
// Codes double as i18n keys.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records the first violation seen for field.
func (v Violations) Add(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}

// RangeFloat flags val outside [minVal, maxVal]. NaN is never in range.
func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if math.IsNaN(val) || val < minVal || val > maxVal {
		v.Add(field, "out_of_range")
	}
}

// Finite flags NaN and ±Inf as "invalid".
func Finite(field string, val float64, v Violations) {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		v.Add(field, "invalid")
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report fields by their JSON name so codes line up with request payloads.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct runs `validate` struct tags and converts failures to Violations.
// A nil result means the value is valid.
func Struct(s any) Violations {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	v := Violations{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.Add("_", "invalid")
		return v
	}
	for _, fe := range fieldErrs {
		v.Add(fe.Field(), codeFor(fe))
	}
	return v
}

func codeFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		if fe.Kind() == reflect.String {
			return "too_long"
		}
		return "out_of_range"
	case "min":
		if fe.Kind() == reflect.String {
			return "too_short"
		}
		return "out_of_range"
	case "gte", "lte", "gt", "lt":
		return "out_of_range"
	case "email":
		return "invalid_email"
	default:
		return "invalid"
	}
}
