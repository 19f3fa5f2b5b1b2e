package val

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/code19m/errx"
	"github.com/go-playground/validator/v10"
)

const (
	CodeValidationFailed = "VALIDATION_FAILED"
)

// ValidateSchema validates schema against its `validate` tags.
// A failure is a T_Validation error whose fields map each offending field,
// named by its json, query or yaml tag, to a readable description.
func ValidateSchema(schema any) error {
	err := getValidator().Struct(schema)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(errx.M, len(validationErrors))
		for _, fieldErr := range validationErrors {
			fields[fieldErr.Field()] = describe(fieldErr)
		}

		return errx.New(
			"Validation failed. See fields for details.",
			errx.WithCode(CodeValidationFailed),
			errx.WithType(errx.T_Validation),
			errx.WithFields(fields),
		)
	}

	return errx.New(
		fmt.Sprintf("Unknown validation error: %s", err.Error()),
		errx.WithCode(CodeValidationFailed),
		errx.WithType(errx.T_Validation),
	)
}

// describe turns a failed tag into the text shown to API clients.
func describe(fieldErr validator.FieldError) string {
	param := fieldErr.Param()
	isString := fieldErr.Kind() == reflect.String

	switch fieldErr.Tag() {
	case "required":
		return "This field is required"
	case "required_if", "required_with":
		return "This field is required here"
	case "min":
		if isString {
			return fmt.Sprintf("Must be at least %s characters", param)
		}
		return fmt.Sprintf("Must be at least %s", param)
	case "max":
		if isString {
			return fmt.Sprintf("Must be at most %s characters", param)
		}
		return fmt.Sprintf("Must be at most %s", param)
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", param)
	case "gt":
		return fmt.Sprintf("Must be greater than %s", param)
	case "lt":
		return fmt.Sprintf("Must be less than %s", param)
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(param, " ", ", "))
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "hostname_port":
		return "Must be a valid host:port pair"
	case tagNotBlank:
		return "Must not be blank"
	case tagWholeSeconds:
		return "Must be a whole number of seconds"
	}

	return fmt.Sprintf("Failed validation: %s", fieldErr.Tag())
}
