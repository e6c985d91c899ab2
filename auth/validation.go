package auth

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-account-service/internal/errors"
)

// Validator checks request models before they reach the AccountService.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: validate}
}

func (v *Validator) ValidateSignUp(model *SignUpModel) error {
	return v.check(model)
}

func (v *Validator) ValidateSignIn(model *SignInModel) error {
	return v.check(model)
}

func (v *Validator) ValidateGoogleSignUp(model *GoogleSignUpModel) error {
	return v.check(model)
}

// RequestError describes the first field of a request that failed validation.
type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %q %s", errors.ErrInvalidRequest, e.Field, e.Reason)
}

func (e *RequestError) Unwrap() error {
	return errors.ErrInvalidRequest
}

// check returns the first failing field as a *RequestError.
func (v *Validator) check(model any) error {
	err := v.validate.Struct(model)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}

	first := validationErrors[0]
	reqErr := &RequestError{Field: first.Field()}
	switch first.Tag() {
	case "required":
		reqErr.Reason = "is required"
	case "email":
		reqErr.Reason = "must be a valid email"
	case "min":
		reqErr.Reason = fmt.Sprintf("must be at least %s characters long", first.Param())
	case "max":
		reqErr.Reason = fmt.Sprintf("must be at most %s characters long", first.Param())
	case "oneof":
		reqErr.Reason = fmt.Sprintf("must be one of [%s]", first.Param())
	case "alphanumunicode":
		reqErr.Reason = "must contain only letters and digits"
	default:
		reqErr.Reason = "is invalid"
	}
	return reqErr
}
