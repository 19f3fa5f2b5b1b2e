package val

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	tagNotBlank     = "not_blank"
	tagWholeSeconds = "whole_seconds"
)

func registerCustomValidations(v *validator.Validate) {
	_ = v.RegisterValidation(tagNotBlank, isNotBlank)
	_ = v.RegisterValidation(tagWholeSeconds, isWholeSeconds)
}

// IsNotBlank reports whether s has at least one non-space character.
func IsNotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsWholeSeconds reports whether d is a whole number of seconds.
func IsWholeSeconds(d time.Duration) bool {
	return d%time.Second == 0
}

func isNotBlank(fl validator.FieldLevel) bool {
	return IsNotBlank(fl.Field().String())
}

func isWholeSeconds(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(time.Duration)
	if !ok {
		return false
	}
	return IsWholeSeconds(d)
}
