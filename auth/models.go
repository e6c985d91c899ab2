package auth

import "github.com/jrsteele09/go-account-service/users"

// SignUpModel is a password registration request.
type SignUpModel struct {
	Name     string           `json:"name" validate:"required,max=100"`
	Username string           `json:"username" validate:"required,min=3,max=30,alphanumunicode"`
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"required,min=8,max=72"`
	Avatar   string           `json:"avatar" validate:"omitempty,url"`
	Roles    []users.RoleType `json:"role" validate:"omitempty,dive,oneof=buyer seller"`
}

// SignInModel is a password sign-in request.
type SignInModel struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// GoogleSignUpModel registers an account for an already verified Google
// identity.
type GoogleSignUpModel struct {
	GoogleID string           `json:"googleId" validate:"required"`
	Name     string           `json:"name" validate:"required,max=100"`
	Username string           `json:"username" validate:"required,min=3,max=30,alphanumunicode"`
	Email    string           `json:"email" validate:"omitempty,email"`
	Avatar   string           `json:"avatar" validate:"omitempty,url"`
	Roles    []users.RoleType `json:"role" validate:"omitempty,dive,oneof=buyer seller"`
}

// Session is the result of every operation that establishes or extends a
// session. RefreshToken is delivered by cookie only.
type Session struct {
	User         users.Profile `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"-"`
}

func rolesOrDefault(roles []users.RoleType) []users.RoleType {
	if len(roles) == 0 {
		return append([]users.RoleType(nil), users.DefaultRoles...)
	}
	return roles
}
