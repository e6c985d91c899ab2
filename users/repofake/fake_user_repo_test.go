package fakeuserrepo_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
	fakeuserrepo "github.com/jrsteele09/go-account-service/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo_Uniqueness(t *testing.T) {
	ctx := context.Background()
	ur := fakeuserrepo.NewFakeUserRepo()

	_, err := ur.Create(ctx, users.NewUser{Username: "ada", Email: "ada@x.com"})
	require.NoError(t, err)

	_, err = ur.Create(ctx, users.NewUser{Username: "ada", Email: "other@x.com"})
	require.ErrorIs(t, err, errors.ErrDuplicateIdentity)

	_, err = ur.Create(ctx, users.NewUser{Username: "ada2", Email: "ADA@x.com"})
	require.ErrorIs(t, err, errors.ErrDuplicateIdentity)

	_, err = ur.Create(ctx, users.NewUser{Username: "g1", GoogleID: "g"})
	require.NoError(t, err)
	_, err = ur.Create(ctx, users.NewUser{Username: "g2", GoogleID: "g"})
	require.ErrorIs(t, err, errors.ErrDuplicateIdentity)

	require.Equal(t, 2, ur.Count())
}

func TestFakeUserRepo_RefreshToken(t *testing.T) {
	ctx := context.Background()
	ur := fakeuserrepo.NewFakeUserRepo()

	u, err := ur.Create(ctx, users.NewUser{Username: "ada", Email: "ada@x.com"})
	require.NoError(t, err)

	_, err = ur.GetByRefreshToken(ctx, "")
	require.ErrorIs(t, err, errors.ErrNotFound, "an empty token never matches a signed-out user")

	_, err = ur.UpdateRefreshToken(ctx, u.ID, "t1")
	require.NoError(t, err)
	got, err := ur.GetByRefreshToken(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	// Returned users are copies.
	got.RefreshToken = "tampered"
	again, err := ur.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "t1", again.RefreshToken)

	_, err = ur.UpdateRefreshToken(ctx, "missing", "t2")
	require.ErrorIs(t, err, errors.ErrNotFound)
}
