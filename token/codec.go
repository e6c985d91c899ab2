package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-account-service/internal/config"
	"github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
)

// Kind distinguishes the two token classes. Each kind has its own key and
// lifetime.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the payload of both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Type Kind          `json:"typ"`
	User users.Profile `json:"user"`
}

// Pair is an access token together with its refresh token.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

type keyedLifetime struct {
	signer Signer
	ttl    time.Duration
}

// Codec issues and verifies signed, time-bound tokens.
type Codec struct {
	kinds   map[Kind]keyedLifetime
	nowTime func() time.Time
}

// CodecOption defines a function type to modify the Codec instance.
type CodecOption func(*Codec)

// WithNowTime sets the clock used to stamp and check expiry (primarily for testing)
func WithNowTime(nowFunc func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowTime = nowFunc
	}
}

// WithSigner replaces the signer for one kind.
func WithSigner(kind Kind, signer Signer) CodecOption {
	return func(c *Codec) {
		k := c.kinds[kind]
		k.signer = signer
		c.kinds[kind] = k
	}
}

// NewCodec builds a codec from the configured secrets and lifetimes. The two
// secrets must differ so one token class can never be replayed as the other.
func NewCodec(cfg config.TokenConfig, options ...CodecOption) (*Codec, error) {
	if cfg.GetAccessTokenSecret() == cfg.GetRefreshTokenSecret() {
		return nil, fmt.Errorf("[NewCodec] access and refresh token secrets must differ")
	}
	accessSigner, err := NewHMACSigner(cfg.GetAccessTokenSecret())
	if err != nil {
		return nil, fmt.Errorf("[NewCodec] access token secret: %w", err)
	}
	refreshSigner, err := NewHMACSigner(cfg.GetRefreshTokenSecret())
	if err != nil {
		return nil, fmt.Errorf("[NewCodec] refresh token secret: %w", err)
	}
	if cfg.GetAccessTokenExpiry() <= 0 || cfg.GetRefreshTokenExpiry() <= 0 {
		return nil, fmt.Errorf("[NewCodec] token lifetimes must be positive")
	}

	c := &Codec{
		kinds: map[Kind]keyedLifetime{
			KindAccess:  {signer: accessSigner, ttl: cfg.GetAccessTokenExpiry()},
			KindRefresh: {signer: refreshSigner, ttl: cfg.GetRefreshTokenExpiry()},
		},
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// TTL returns the lifetime of kind.
func (c *Codec) TTL(kind Kind) time.Duration {
	return c.kinds[kind].ttl
}

func (c *Codec) IssueAccessToken(profile users.Profile) (string, error) {
	return c.issue(KindAccess, profile)
}

func (c *Codec) IssueRefreshToken(profile users.Profile) (string, error) {
	return c.issue(KindRefresh, profile)
}

// IssueTokenPair issues both tokens for the same profile snapshot.
func (c *Codec) IssueTokenPair(profile users.Profile) (Pair, error) {
	access, err := c.IssueAccessToken(profile)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := c.IssueRefreshToken(profile)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (c *Codec) issue(kind Kind, profile users.Profile) (string, error) {
	if profile.ID == "" {
		return "", fmt.Errorf("[Codec.issue] profile has no id")
	}
	k := c.kinds[kind]
	now := c.nowTime()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.ttl)), // absolute expiry
			ID:        uuid.New().String(),                // keeps same-second tokens distinct
		},
		Type: kind,
		User: profile,
	}
	return k.signer.Sign(claims)
}

// Verify checks signature, expiry and kind. Expiry yields ErrTokenExpired;
// every other failure yields ErrInvalidToken.
func (c *Codec) Verify(rawToken string, kind Kind) (*Claims, error) {
	k, ok := c.kinds[kind]
	if !ok || rawToken == "" {
		return nil, errors.ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, k.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{k.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowTime),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", errors.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	if claims.Type != kind || claims.Subject == "" || claims.Subject != claims.User.ID {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
