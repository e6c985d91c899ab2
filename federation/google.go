// Package federation turns Google sign-in artefacts into a verified identity.
package federation

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-account-service/internal/config"
	"github.com/jrsteele09/go-account-service/internal/errors"
	"golang.org/x/oauth2"
)

// Identity is what the identity provider vouches for.
type Identity struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleVerifier verifies Google ID tokens and exchanges authorization codes
// issued to the configured client.
type GoogleVerifier struct {
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewGoogleVerifier discovers the issuer's keys and endpoints.
func NewGoogleVerifier(ctx context.Context, cfg config.FederationConfig) (*GoogleVerifier, error) {
	if cfg.GetGoogleClientID() == "" {
		return nil, fmt.Errorf("[NewGoogleVerifier] google client id is required")
	}
	provider, err := oidc.NewProvider(ctx, cfg.GetGoogleIssuer())
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return newGoogleVerifier(
		provider.Verifier(&oidc.Config{ClientID: cfg.GetGoogleClientID()}),
		&oauth2.Config{
			ClientID:     cfg.GetGoogleClientID(),
			ClientSecret: cfg.GetGoogleClientSecret(),
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.GetGoogleRedirectURL(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	), nil
}

func newGoogleVerifier(verifier *oidc.IDTokenVerifier, oauth2Config *oauth2.Config) *GoogleVerifier {
	return &GoogleVerifier{verifier: verifier, oauth2Config: oauth2Config}
}

// VerifyIDToken checks the token's signature, issuer, audience and expiry.
func (g *GoogleVerifier) VerifyIDToken(ctx context.Context, rawIDToken string) (*Identity, error) {
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: id token verification failed: %v", errors.ErrInvalidToken, err)
	}

	var identity Identity
	if err := idToken.Claims(&identity); err != nil {
		return nil, fmt.Errorf("%w: failed to extract claims: %v", errors.ErrInvalidToken, err)
	}
	identity.Subject = idToken.Subject
	if identity.Subject == "" {
		return nil, fmt.Errorf("%w: id token has no subject", errors.ErrInvalidToken)
	}
	// An unverified email must not be used to claim an address.
	if !identity.EmailVerified {
		identity.Email = ""
	}
	return &identity, nil
}

// Exchange redeems an authorization code and verifies the returned ID token.
func (g *GoogleVerifier) Exchange(ctx context.Context, code string) (*Identity, error) {
	oauth2Token, err := g.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, exchangeError(err)
	}
	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: no id token in response", errors.ErrInvalidToken)
	}
	return g.VerifyIDToken(ctx, rawIDToken)
}

// exchangeError separates a rejected code from an unreachable or failing
// token endpoint, which is worth retrying.
func exchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= 500 {
			return fmt.Errorf("%w: token endpoint failed: %v", errors.ErrTransientStore, err)
		}
		return fmt.Errorf("%w: code exchange rejected: %v", errors.ErrInvalidToken, err)
	}
	return fmt.Errorf("%w: token endpoint unreachable: %v", errors.ErrTransientStore, err)
}
