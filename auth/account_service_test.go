package auth_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-account-service/auth"
	"github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/token"
	"github.com/jrsteele09/go-account-service/users"
	fakeuserrepo "github.com/jrsteele09/go-account-service/users/repofake"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessSecret  = "access-secret-access-secret-0123456789"
	testRefreshSecret = "refresh-secret-refresh-secret-012345678"
	testPassword      = "longenough1"
	testGoogleID      = "google-oauth2|1234567890"
)

type testTokenConfig struct{}

func (testTokenConfig) GetAccessTokenSecret() string { return testAccessSecret }
func (testTokenConfig) GetRefreshTokenSecret() string { return testRefreshSecret }
func (testTokenConfig) GetAccessTokenExpiry() time.Duration { return 5 * time.Minute }
func (testTokenConfig) GetRefreshTokenExpiry() time.Duration { return 7 * 24 * time.Hour }
func (testTokenConfig) GetPasswordHashConcurrency() int { return 2 }

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

// testFixture holds all test dependencies
type testFixture struct {
	userRepo *fakeuserrepo.FakeUserRepo
	codec    *token.Codec
	clock    *clock
	service  *auth.AccountService
}

func setupTestFixture(t *testing.T, options ...auth.AccountServiceOption) *testFixture {
	t.Helper()

	clk := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := token.NewCodec(testTokenConfig{}, token.WithNowTime(clk.Now))
	require.NoError(t, err)

	ur := fakeuserrepo.NewFakeUserRepo()
	service, err := auth.NewAccountService(ur, codec, users.NewBcryptHasher(bcrypt.MinCost, 2), options...)
	require.NoError(t, err)

	return &testFixture{userRepo: ur, codec: codec, clock: clk, service: service}
}

func adaSignUp() auth.SignUpModel {
	return auth.SignUpModel{
		Name:     "Ada",
		Username: "ada",
		Email:    "ada@x.com",
		Password: testPassword,
	}
}

func googleSignUp() auth.GoogleSignUpModel {
	return auth.GoogleSignUpModel{
		GoogleID: testGoogleID,
		Name:     "Grace",
		Username: "grace",
		Email:    "grace@x.com",
	}
}

func (f *testFixture) storedUser(t *testing.T, id string) *users.User {
	t.Helper()
	u, err := f.userRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestNewAccountService_RequiresDependencies(t *testing.T) {
	codec, err := token.NewCodec(testTokenConfig{})
	require.NoError(t, err)
	hasher := users.NewBcryptHasher(bcrypt.MinCost, 1)
	repo := fakeuserrepo.NewFakeUserRepo()

	_, err = auth.NewAccountService(nil, codec, hasher)
	require.Error(t, err)
	_, err = auth.NewAccountService(repo, nil, hasher)
	require.Error(t, err)
	_, err = auth.NewAccountService(repo, codec, nil)
	require.Error(t, err)
}

func TestSignUp(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	session, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)

	stored := f.storedUser(t, session.User.ID)
	require.NotEqual(t, testPassword, stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(testPassword)))
	require.Equal(t, session.RefreshToken, stored.RefreshToken)
	require.Equal(t, []users.RoleType{users.RoleBuyer}, stored.Roles)
	require.Equal(t, users.DefaultAvatar("Ada"), stored.Avatar)

	claims, err := f.codec.Verify(session.AccessToken, token.KindAccess)
	require.NoError(t, err)
	require.Equal(t, stored.Profile(), claims.User)
	require.Equal(t, stored.ID, claims.Subject)
	require.NotContains(t, session.AccessToken, testPassword)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)

	second := adaSignUp()
	second.Username = "ada2"
	second.Email = "ADA@x.com"
	_, err = f.service.SignUp(ctx, second)
	require.ErrorIs(t, err, errors.ErrDuplicateIdentity)
	require.Equal(t, 1, f.userRepo.Count())
}

func TestSignUp_InvalidRequest(t *testing.T) {
	tests := []struct {
		name   string
		modify func(m *auth.SignUpModel)
	}{
		{"missing name", func(m *auth.SignUpModel) { m.Name = "" }},
		{"missing username", func(m *auth.SignUpModel) { m.Username = "" }},
		{"bad email", func(m *auth.SignUpModel) { m.Email = "not-an-email" }},
		{"short password", func(m *auth.SignUpModel) { m.Password = "short" }},
		{"unknown role", func(m *auth.SignUpModel) { m.Roles = []users.RoleType{"root"} }},
		{"admin role", func(m *auth.SignUpModel) { m.Roles = []users.RoleType{users.RoleAdmin} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			model := adaSignUp()
			tt.modify(&model)

			_, err := f.service.SignUp(context.Background(), model)
			require.ErrorIs(t, err, errors.ErrInvalidRequest)
			require.Equal(t, 0, f.userRepo.Count())
		})
	}
}

func TestSignUp_MirrorWriteFails(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.userRepo.UpdateErr = errors.ErrTransientStore

	_, err := f.service.SignUp(ctx, adaSignUp())
	require.ErrorIs(t, err, errors.ErrTransientStore)
	require.Equal(t, 1, f.userRepo.Count())

	// The account exists and can establish a session later.
	f.userRepo.UpdateErr = nil
	session, err := f.service.SignIn(ctx, auth.SignInModel{Email: "ada@x.com", Password: testPassword})
	require.NoError(t, err)
	require.NotEmpty(t, session.RefreshToken)
}

func TestSignIn(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	signUp, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)

	session, err := f.service.SignIn(ctx, auth.SignInModel{Email: " Ada@X.com ", Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, signUp.User.ID, session.User.ID)
	require.NotEqual(t, signUp.RefreshToken, session.RefreshToken)

	stored := f.storedUser(t, session.User.ID)
	require.Equal(t, session.RefreshToken, stored.RefreshToken)

	claims, err := f.codec.Verify(session.AccessToken, token.KindAccess)
	require.NoError(t, err)
	require.Equal(t, stored.Profile(), claims.User)

	// The sign-up session was replaced.
	_, err = f.service.RefreshAccessToken(ctx, signUp.RefreshToken)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSignIn_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)

	_, wrongPassword := f.service.SignIn(ctx, auth.SignInModel{Email: "ada@x.com", Password: "wrongpassword"})
	require.ErrorIs(t, wrongPassword, errors.ErrInvalidCredentials)
	require.NotErrorIs(t, wrongPassword, errors.ErrNotFound)

	_, unknownEmail := f.service.SignIn(ctx, auth.SignInModel{Email: "nobody@x.com", Password: "wrongpassword"})
	require.ErrorIs(t, unknownEmail, errors.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, errors.ErrNotFound)

	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	require.NotContains(t, unknownEmail.Error(), "not found")
}

// countingHasher records how many comparisons reach bcrypt.
type countingHasher struct {
	*users.BcryptHasher
	compares atomic.Int32
}

func (h *countingHasher) Compare(ctx context.Context, password, hash string) (bool, error) {
	h.compares.Add(1)
	return h.BcryptHasher.Compare(ctx, password, hash)
}

func TestSignIn_UnknownEmailStillComparesPassword(t *testing.T) {
	codec, err := token.NewCodec(testTokenConfig{})
	require.NoError(t, err)
	hasher := &countingHasher{BcryptHasher: users.NewBcryptHasher(bcrypt.MinCost, 2)}
	service, err := auth.NewAccountService(fakeuserrepo.NewFakeUserRepo(), codec, hasher)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		_, err = service.SignIn(ctx, auth.SignInModel{Email: "nobody@x.com", Password: testPassword})
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
		require.Equal(t, int32(i), hasher.compares.Load())
	}

	// Matching the dummy password grants nothing.
	_, err = service.SignIn(ctx, auth.SignInModel{Email: "nobody@x.com", Password: "account-service-dummy-password"})
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)
}

func TestSignIn_FederatedAccountHasNoPassword(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.service.GoogleSignUp(ctx, googleSignUp())
	require.NoError(t, err)

	_, err = f.service.SignIn(ctx, auth.SignInModel{Email: "grace@x.com", Password: testPassword})
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)
}

func TestSignIn_StoreUnavailable(t *testing.T) {
	f := setupTestFixture(t)
	f.userRepo.Err = errors.ErrTransientStore

	_, err := f.service.SignIn(context.Background(), auth.SignInModel{Email: "ada@x.com", Password: testPassword})
	require.ErrorIs(t, err, errors.ErrTransientStore)
	require.NotErrorIs(t, err, errors.ErrNotFound)
	require.NotErrorIs(t, err, errors.ErrInvalidCredentials)
}

func TestSignIn_CancelledContext(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.SignUp(context.Background(), adaSignUp())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.service.SignIn(ctx, auth.SignInModel{Email: "ada@x.com", Password: testPassword})
	require.ErrorIs(t, err, context.Canceled)
}

func TestGoogleSignUp_Idempotent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first, err := f.service.GoogleSignUp(ctx, googleSignUp())
	require.NoError(t, err)

	stored := f.storedUser(t, first.User.ID)
	require.False(t, stored.HasPassword())
	require.Equal(t, testGoogleID, stored.GoogleID)

	second, err := f.service.GoogleSignUp(ctx, googleSignUp())
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)
	require.Equal(t, 1, f.userRepo.Count())

	// The repeated sign-up opened a new session.
	require.Equal(t, second.RefreshToken, f.storedUser(t, first.User.ID).RefreshToken)
}

func TestGoogleSignUp_UsernameTaken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)

	model := googleSignUp()
	model.Username = "ada"
	_, err = f.service.GoogleSignUp(ctx, model)
	require.ErrorIs(t, err, errors.ErrDuplicateIdentity)
	require.Equal(t, 1, f.userRepo.Count())
}

func TestGoogleSignIn(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.service.GoogleSignIn(ctx, testGoogleID)
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = f.service.GoogleSignIn(ctx, "")
	require.ErrorIs(t, err, errors.ErrInvalidRequest)

	signUp, err := f.service.GoogleSignUp(ctx, googleSignUp())
	require.NoError(t, err)

	session, err := f.service.GoogleSignIn(ctx, testGoogleID)
	require.NoError(t, err)
	require.Equal(t, signUp.User.ID, session.User.ID)
	require.NotEqual(t, signUp.RefreshToken, session.RefreshToken)
	require.Equal(t, session.RefreshToken, f.storedUser(t, session.User.ID).RefreshToken)
}

func TestSignOut(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	session, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)

	require.NoError(t, f.service.SignOut(ctx, session.RefreshToken))
	require.Empty(t, f.storedUser(t, session.User.ID).RefreshToken)

	err = f.service.SignOut(ctx, session.RefreshToken)
	require.ErrorIs(t, err, errors.ErrNotFound)

	// Still signed and unexpired, but revoked.
	_, err = f.codec.Verify(session.RefreshToken, token.KindRefresh)
	require.NoError(t, err)
	_, err = f.service.RefreshAccessToken(ctx, session.RefreshToken)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSignOut_EmptyToken(t *testing.T) {
	f := setupTestFixture(t)
	err := f.service.SignOut(context.Background(), "")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRefreshAccessToken_Rotates(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	session, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(10 * time.Minute)
	_, err = f.codec.Verify(session.AccessToken, token.KindAccess)
	require.ErrorIs(t, err, errors.ErrTokenExpired)

	refreshed, err := f.service.RefreshAccessToken(ctx, session.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, session.RefreshToken, refreshed.RefreshToken)
	require.Equal(t, refreshed.RefreshToken, f.storedUser(t, session.User.ID).RefreshToken)

	profile, err := f.service.Authenticate(refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, session.User.ID, profile.ID)

	_, err = f.service.RefreshAccessToken(ctx, session.RefreshToken)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRefreshAccessToken_Static(t *testing.T) {
	f := setupTestFixture(t, auth.WithStaticRefreshToken())
	ctx := context.Background()

	session, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		refreshed, err := f.service.RefreshAccessToken(ctx, session.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, session.RefreshToken, refreshed.RefreshToken)
		require.NotEqual(t, session.AccessToken, refreshed.AccessToken)
	}
	require.Equal(t, session.RefreshToken, f.storedUser(t, session.User.ID).RefreshToken)
}

func TestRefreshAccessToken_ExpiredLeavesMirror(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	session, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(8 * 24 * time.Hour)
	_, err = f.service.RefreshAccessToken(ctx, session.RefreshToken)
	require.ErrorIs(t, err, errors.ErrTokenExpired)
	require.Equal(t, session.RefreshToken, f.storedUser(t, session.User.ID).RefreshToken)
}

func TestRefreshAccessToken_Failures(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	session, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)

	_, err = f.service.RefreshAccessToken(ctx, "")
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = f.service.RefreshAccessToken(ctx, "never.issued.token")
	require.ErrorIs(t, err, errors.ErrNotFound)

	// An access token planted as the mirror is found but is the wrong kind.
	_, err = f.userRepo.UpdateRefreshToken(ctx, session.User.ID, session.AccessToken)
	require.NoError(t, err)
	_, err = f.service.RefreshAccessToken(ctx, session.AccessToken)
	require.ErrorIs(t, err, errors.ErrInvalidToken)
	require.Equal(t, session.AccessToken, f.storedUser(t, session.User.ID).RefreshToken)

	f.userRepo.Err = errors.ErrTransientStore
	_, err = f.service.RefreshAccessToken(ctx, session.RefreshToken)
	require.ErrorIs(t, err, errors.ErrTransientStore)
	require.NotErrorIs(t, err, errors.ErrNotFound)
}

func TestRefreshAccessToken_SubjectMismatch(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	ada, err := f.service.SignUp(ctx, adaSignUp())
	require.NoError(t, err)
	grace, err := f.service.GoogleSignUp(ctx, googleSignUp())
	require.NoError(t, err)

	// Grace's mirror holds a token minted for Ada.
	_, err = f.userRepo.UpdateRefreshToken(ctx, ada.User.ID, "")
	require.NoError(t, err)
	_, err = f.userRepo.UpdateRefreshToken(ctx, grace.User.ID, ada.RefreshToken)
	require.NoError(t, err)

	_, err = f.service.RefreshAccessToken(ctx, ada.RefreshToken)
	require.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestAuthenticate(t *testing.T) {
	f := setupTestFixture(t)

	session, err := f.service.SignUp(context.Background(), adaSignUp())
	require.NoError(t, err)

	profile, err := f.service.Authenticate(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, session.User, *profile)

	_, err = f.service.Authenticate("")
	require.ErrorIs(t, err, errors.ErrInvalidToken)

	_, err = f.service.Authenticate(session.RefreshToken)
	require.ErrorIs(t, err, errors.ErrInvalidToken)

	f.clock.now = f.clock.now.Add(6 * time.Minute)
	_, err = f.service.Authenticate(session.AccessToken)
	require.ErrorIs(t, err, errors.ErrTokenExpired)
}
