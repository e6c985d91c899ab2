package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-account-service/auth"
	"github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestValidator_SignUpMessages(t *testing.T) {
	v := auth.NewValidator()

	tests := []struct {
		name    string
		model   auth.SignUpModel
		message string
	}{
		{
			name:    "missing email reported by json name",
			model:   auth.SignUpModel{Name: "Ada", Username: "ada", Password: "longenough1"},
			message: `"email" is required`,
		},
		{
			name:    "short password",
			model:   auth.SignUpModel{Name: "Ada", Username: "ada", Email: "ada@x.com", Password: "short"},
			message: `"password" must be at least 8 characters long`,
		},
		{
			name:    "invalid email",
			model:   auth.SignUpModel{Name: "Ada", Username: "ada", Email: "ada", Password: "longenough1"},
			message: `"email" must be a valid email`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateSignUp(&tt.model)
			require.ErrorIs(t, err, errors.ErrInvalidRequest)
			require.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidator_Valid(t *testing.T) {
	v := auth.NewValidator()

	require.NoError(t, v.ValidateSignUp(&auth.SignUpModel{Name: "Ada Lovelace", Username: "ada", Email: "ada@x.com", Password: "longenough1"}))
	require.NoError(t, v.ValidateSignIn(&auth.SignInModel{Email: "ada@x.com", Password: "x"}))
	require.NoError(t, v.ValidateGoogleSignUp(&auth.GoogleSignUpModel{GoogleID: "g-1", Name: "Grace", Username: "grace"}))
}

func TestValidator_GoogleSignUpNeedsID(t *testing.T) {
	err := auth.NewValidator().ValidateGoogleSignUp(&auth.GoogleSignUpModel{Name: "Grace", Username: "grace"})
	require.ErrorIs(t, err, errors.ErrInvalidRequest)
	require.Contains(t, err.Error(), `"googleId" is required`)
}
