package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateCreateUser trims and normalises a registration request.
// The email is lower-cased so uniqueness is case-insensitive.
func ValidateCreateUser(req CreateUserRequest) (CreateUserRequest, error) {
	normalized := CreateUserRequest{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
	}
	if err := validate.Struct(normalized); err != nil {
		return req, toValidationError(err)
	}
	return normalized, nil
}

// ValidateUserID rejects empty or oversized user identifiers.
func ValidateUserID(userID string) error {
	id := strings.TrimSpace(userID)
	if err := validate.Var(id, "required"); err != nil {
		return &ValidationError{Field: "userId", Message: "must not be empty"}
	}
	if err := validate.Var(id, "max=64"); err != nil || strings.ContainsAny(id, "/\\") {
		return &ValidationError{Field: "userId", Message: "is malformed"}
	}
	return nil
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "", Message: err.Error()}
	}

	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: messageFor(fe)}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
