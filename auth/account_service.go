package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/token"
	"github.com/jrsteele09/go-account-service/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TokenCodec issues and verifies the session tokens. *token.Codec satisfies it.
type TokenCodec interface {
	IssueAccessToken(profile users.Profile) (string, error)
	IssueTokenPair(profile users.Profile) (token.Pair, error)
	Verify(rawToken string, kind token.Kind) (*token.Claims, error)
	TTL(kind token.Kind) time.Duration
}

// dummyPassword is hashed once so sign-ins for unknown emails cost as much
// as a wrong password.
const dummyPassword = "account-service-dummy-password"

// AccountService runs the session lifecycle: sign-up, sign-in, sign-out and
// refresh. Each user has at most one active refresh token, mirrored on the
// user record, and a presented refresh token is only honoured while it still
// matches that mirror.
//
// AccountService keeps no state of its own and is safe for concurrent use.
type AccountService struct {
	users     users.Repo
	codec     TokenCodec
	hasher    users.Hasher
	validator *Validator
	rotate    bool

	dummyOnce sync.Once
	dummyHash string
}

// AccountServiceOption defines a function type to modify the AccountService instance.
type AccountServiceOption func(*AccountService)

// WithStaticRefreshToken makes RefreshAccessToken issue only a new access
// token and leave the presented refresh token in place until it expires.
func WithStaticRefreshToken() AccountServiceOption {
	return func(as *AccountService) {
		as.rotate = false
	}
}

// NewAccountService initializes a new AccountService with required dependencies.
func NewAccountService(userRepo users.Repo, codec TokenCodec, hasher users.Hasher, options ...AccountServiceOption) (*AccountService, error) {
	if userRepo == nil {
		return nil, errors.New("[NewAccountService] users repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewAccountService] token codec is required")
	}
	if hasher == nil {
		return nil, errors.New("[NewAccountService] password hasher is required")
	}

	as := &AccountService{
		users:     userRepo,
		codec:     codec,
		hasher:    hasher,
		validator: NewValidator(),
		rotate:    true,
	}
	for _, opt := range options {
		opt(as)
	}
	return as, nil
}

// SignUp registers a password account and opens its first session.
func (as *AccountService) SignUp(ctx context.Context, model SignUpModel) (*Session, error) {
	model.Email = normalizeEmail(model.Email)
	if err := as.validator.ValidateSignUp(&model); err != nil {
		return nil, errors.Wrap(err, "[AccountService.SignUp]")
	}

	hash, err := as.hasher.Hash(ctx, model.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.SignUp] hasher.Hash")
	}

	user, err := as.users.Create(ctx, users.NewUser{
		Name:         model.Name,
		Username:     model.Username,
		Email:        model.Email,
		PasswordHash: hash,
		Avatar:       avatarOrDefault(model.Avatar, model.Name),
		Roles:        rolesOrDefault(model.Roles),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.SignUp] users.Create")
	}
	log.Info().Str("userId", user.ID).Msg("user signed up")

	// The record exists from here on. A failed mirror write leaves it
	// without a session until the next sign-in.
	session, err := as.startSession(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.SignUp]")
	}
	return session, nil
}

// SignIn checks a password and opens a new session, replacing any previous
// one. An unknown email and a wrong password produce the same error message.
func (as *AccountService) SignIn(ctx context.Context, model SignInModel) (*Session, error) {
	model.Email = normalizeEmail(model.Email)
	if err := as.validator.ValidateSignIn(&model); err != nil {
		return nil, errors.Wrap(err, "[AccountService.SignIn]")
	}

	user, err := as.users.GetByEmail(ctx, model.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			as.compareDummy(ctx, model.Password)
			return nil, errors.Wrap(&credentialsError{cause: err}, "[AccountService.SignIn]")
		}
		return nil, errors.Wrap(err, "[AccountService.SignIn] users.GetByEmail")
	}

	ok, err := as.hasher.Compare(ctx, model.Password, user.PasswordHash)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.SignIn] hasher.Compare")
	}
	if !ok {
		return nil, errors.Wrap(&credentialsError{}, "[AccountService.SignIn]")
	}

	session, err := as.startSession(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.SignIn]")
	}
	return session, nil
}

// GoogleSignUp registers a federation-only account. When an account already
// holds the federated id the call signs that account in instead, so repeated
// sign-ups never create a second record.
func (as *AccountService) GoogleSignUp(ctx context.Context, model GoogleSignUpModel) (*Session, error) {
	model.Email = normalizeEmail(model.Email)
	if err := as.validator.ValidateGoogleSignUp(&model); err != nil {
		return nil, errors.Wrap(err, "[AccountService.GoogleSignUp]")
	}

	user, err := as.users.GetByFederatedID(ctx, model.GoogleID)
	switch {
	case err == nil:
		log.Debug().Str("userId", user.ID).Msg("google sign-up for existing account")
	case apperrors.Is(err, apperrors.ErrNotFound):
		user, err = as.createFederated(ctx, model)
		if err != nil {
			return nil, errors.Wrap(err, "[AccountService.GoogleSignUp]")
		}
	default:
		return nil, errors.Wrap(err, "[AccountService.GoogleSignUp] users.GetByFederatedID")
	}

	session, err := as.startSession(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.GoogleSignUp]")
	}
	return session, nil
}

// createFederated creates the account, tolerating a concurrent sign-up that
// created the same federated id first.
func (as *AccountService) createFederated(ctx context.Context, model GoogleSignUpModel) (*users.User, error) {
	user, err := as.users.Create(ctx, users.NewUser{
		GoogleID: model.GoogleID,
		Name:     model.Name,
		Username: model.Username,
		Email:    model.Email,
		Avatar:   avatarOrDefault(model.Avatar, model.Name),
		Roles:    rolesOrDefault(model.Roles),
	})
	if err == nil {
		log.Info().Str("userId", user.ID).Msg("user signed up with google")
		return user, nil
	}
	if !apperrors.Is(err, apperrors.ErrDuplicateIdentity) {
		return nil, errors.Wrap(err, "users.Create")
	}

	existing, lookupErr := as.users.GetByFederatedID(ctx, model.GoogleID)
	if lookupErr != nil {
		// Someone else owns the username or email.
		return nil, errors.Wrap(err, "users.Create")
	}
	return existing, nil
}

// GoogleSignIn opens a session for the account holding googleID.
func (as *AccountService) GoogleSignIn(ctx context.Context, googleID string) (*Session, error) {
	if strings.TrimSpace(googleID) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "[AccountService.GoogleSignIn] googleId is required")
	}

	user, err := as.users.GetByFederatedID(ctx, googleID)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.GoogleSignIn] please sign up")
	}

	session, err := as.startSession(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.GoogleSignIn]")
	}
	return session, nil
}

// SignOut ends the session holding refreshToken by clearing the mirror. The
// token itself stays signed and unexpired but can no longer be used.
func (as *AccountService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return errors.Wrap(apperrors.ErrNotFound, "[AccountService.SignOut] no refresh token")
	}

	user, err := as.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return errors.Wrap(err, "[AccountService.SignOut] users.GetByRefreshToken")
	}

	if _, err := as.users.UpdateRefreshToken(ctx, user.ID, ""); err != nil {
		return errors.Wrap(err, "[AccountService.SignOut] users.UpdateRefreshToken")
	}
	log.Info().Str("userId", user.ID).Msg("user signed out")
	return nil
}

// RefreshAccessToken exchanges the current refresh token for a new access
// token. With rotation enabled the refresh token is replaced too, so the
// presented one stops working immediately.
func (as *AccountService) RefreshAccessToken(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, errors.Wrap(apperrors.ErrNotFound, "[AccountService.RefreshAccessToken] no refresh token")
	}

	user, err := as.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.RefreshAccessToken] users.GetByRefreshToken")
	}

	// An expired or tampered token leaves the mirror as it is.
	claims, err := as.codec.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTokenExpired) {
			log.Debug().Str("userId", user.ID).Msg("refresh token expired")
		} else {
			log.Warn().Err(err).Str("userId", user.ID).Msg("refresh token failed verification")
		}
		return nil, errors.Wrap(err, "[AccountService.RefreshAccessToken] codec.Verify")
	}
	if claims.Subject != user.ID {
		log.Warn().Str("userId", user.ID).Str("subject", claims.Subject).Msg("refresh token subject mismatch")
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "[AccountService.RefreshAccessToken] subject mismatch")
	}

	if !as.rotate {
		accessToken, err := as.codec.IssueAccessToken(user.Profile())
		if err != nil {
			return nil, errors.Wrap(err, "[AccountService.RefreshAccessToken] codec.IssueAccessToken")
		}
		return &Session{User: user.Profile(), AccessToken: accessToken, RefreshToken: refreshToken}, nil
	}

	session, err := as.startSession(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.RefreshAccessToken]")
	}
	return session, nil
}

// TokenTTL is the lifetime of tokens of the given kind.
func (as *AccountService) TokenTTL(kind token.Kind) time.Duration {
	return as.codec.TTL(kind)
}

// Authenticate verifies an access token and returns the profile it carries.
func (as *AccountService) Authenticate(accessToken string) (*users.Profile, error) {
	if accessToken == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "[AccountService.Authenticate] no access token")
	}
	claims, err := as.codec.Verify(accessToken, token.KindAccess)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountService.Authenticate] codec.Verify")
	}
	profile := claims.User
	return &profile, nil
}

// startSession issues a token pair for user and mirrors the refresh token,
// replacing whatever session the user had before.
func (as *AccountService) startSession(ctx context.Context, user *users.User) (*Session, error) {
	pair, err := as.codec.IssueTokenPair(user.Profile())
	if err != nil {
		return nil, errors.Wrap(err, "codec.IssueTokenPair")
	}

	updated, err := as.users.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "users.UpdateRefreshToken")
	}

	return &Session{
		User:         updated.Profile(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// compareDummy spends a password comparison and discards the result.
func (as *AccountService) compareDummy(ctx context.Context, password string) {
	as.dummyOnce.Do(func() {
		hash, err := as.hasher.Hash(context.Background(), dummyPassword)
		if err != nil {
			log.Warn().Err(err).Msg("failed to hash dummy password")
			return
		}
		as.dummyHash = hash
	})
	if _, err := as.hasher.Compare(ctx, password, as.dummyHash); err != nil {
		log.Debug().Err(err).Msg("dummy password comparison")
	}
}

// credentialsError reports a failed sign-in. Its message is the same whether
// the email was unknown or the password wrong; the store's NotFound, when
// there was one, is still reachable with errors.Is.
type credentialsError struct {
	cause error
}

func (e *credentialsError) Error() string {
	return apperrors.ErrInvalidCredentials.Error()
}

func (e *credentialsError) Unwrap() []error {
	if e.cause == nil {
		return []error{apperrors.ErrInvalidCredentials}
	}
	return []error{apperrors.ErrInvalidCredentials, e.cause}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func avatarOrDefault(avatar, name string) string {
	if avatar != "" {
		return avatar
	}
	return users.DefaultAvatar(name)
}
