// Package validate holds the field-level request validators backing the
// Validation error kind (spec §7), grounded on the teacher's
// verify/builtin.go use of go-toolbox/pkg/validator for response
// assertions — the same comparator primitives are reused here for request
// field checks instead of HTTP response checks.
package validate

import (
	"github.com/kamalyes/go-toolbox/pkg/validator"

	"github.com/infodungeon/keyforge/internal/errs"
)

// NotEmpty rejects a blank string field.
func NotEmpty(field, value string) error {
	result := validator.ValidateString(value, "", validator.OpNotEmpty)
	if !result.Success {
		return errs.New(errs.Validation, field+": "+result.Message)
	}
	return nil
}

// Finite rejects a non-finite numeric field (NaN/Inf), per spec §4.5's
// "all numeric fields rejected if non-finite."
func Finite(field string, v float64) error {
	if v != v || v > maxFinite || v < -maxFinite {
		return errs.NonFiniteNumber(field)
	}
	return nil
}

const maxFinite = 1.7976931348623157e+308

// InRange rejects a numeric field outside [min, max] using the same
// comparator the teacher's verify package uses for response-time bounds.
func InRange(field string, v, min, max float64) error {
	if result := validator.CompareNumbers(v, min, validator.OpGreaterThanOrEqual); !result.Success {
		return errs.New(errs.Validation, field+": "+result.Message)
	}
	if result := validator.CompareNumbers(v, max, validator.OpLessThanOrEqual); !result.Success {
		return errs.New(errs.Validation, field+": "+result.Message)
	}
	return nil
}
