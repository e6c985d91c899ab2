package users

import (
	"fmt"
	"net/url"
	"time"
)

// RoleType is a coarse account role. Roles are carried in tokens but not
// enforced by this service.
type RoleType string

const (
	RoleBuyer  RoleType = "buyer"
	RoleSeller RoleType = "seller"
	RoleAdmin  RoleType = "admin"
)

// DefaultRoles is assigned when a sign-up does not ask for a role.
var DefaultRoles = []RoleType{RoleBuyer}

type User struct {
	ID           string     `json:"id,omitempty"`       // Unique identifier for the user
	GoogleID     string     `json:"googleId,omitempty"` // Federated identity id, set only for Google accounts
	Name         string     `json:"name,omitempty"`     // Display name
	Username     string     `json:"username,omitempty"` // Unique username
	Email        string     `json:"email,omitempty"`    // Unique email, optional for federation-only accounts
	PasswordHash string     `json:"-"`                  // Hashed password - never serialize
	Avatar       string     `json:"avatar,omitempty"`
	Roles        []RoleType `json:"roles,omitempty"`
	RefreshToken string     `json:"-"` // Mirrored refresh token, empty when signed out
	CreatedAt    time.Time  `json:"createdAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt,omitempty"`
}

// NewUser holds the fields needed to create a user record.
type NewUser struct {
	GoogleID     string
	Name         string
	Username     string
	Email        string
	PasswordHash string
	Avatar       string
	Roles        []RoleType
}

// Profile is the public snapshot of a user embedded in tokens and returned to
// clients.
type Profile struct {
	ID       string     `json:"_id"`
	Name     string     `json:"name"`
	Username string     `json:"username"`
	Email    string     `json:"email,omitempty"`
	Avatar   string     `json:"avatar,omitempty"`
	Roles    []RoleType `json:"role"`
}

// Profile returns the user's public fields.
func (u *User) Profile() Profile {
	roles := make([]RoleType, len(u.Roles))
	copy(roles, u.Roles)
	return Profile{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
		Roles:    roles,
	}
}

// HasPassword is false for federation-only accounts.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	c := *u
	c.Roles = append([]RoleType(nil), u.Roles...)
	return &c
}

// DefaultAvatar returns a generated initials avatar URL for name.
func DefaultAvatar(name string) string {
	return fmt.Sprintf("https://eu.ui-avatars.com/api/?name=%s&background=random&bold=true&rounded=true", url.QueryEscape(name))
}
