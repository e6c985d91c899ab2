package mongorepo

import (
	"time"

	"github.com/jrsteele09/go-account-service/users"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type userDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	GoogleID     string        `bson:"googleId,omitempty"`
	Name         string        `bson:"name"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email,omitempty"`
	Password     string        `bson:"password,omitempty"`
	Avatar       string        `bson:"avatar,omitempty"`
	Roles        []string      `bson:"role"`
	RefreshToken string        `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (d userDocument) toUser() *users.User {
	roles := make([]users.RoleType, 0, len(d.Roles))
	for _, r := range d.Roles {
		roles = append(roles, users.RoleType(r))
	}
	return &users.User{
		ID:           d.ID.Hex(),
		GoogleID:     d.GoogleID,
		Name:         d.Name,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Avatar:       d.Avatar,
		Roles:        roles,
		RefreshToken: d.RefreshToken,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func rolesToStrings(roles []users.RoleType) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
