package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-account-service/auth"
	"github.com/jrsteele09/go-account-service/federation"
	"github.com/jrsteele09/go-account-service/internal/errors"
)

// googleSignUpRequest is the federated sign-up body. With an identity
// verifier configured the googleId comes from the idToken or code instead of
// the body.
type googleSignUpRequest struct {
	auth.GoogleSignUpModel
	IDToken string `json:"idToken"`
	Code    string `json:"code"`
}

type googleSignInRequest struct {
	GoogleID string `json:"googleId"`
	IDToken  string `json:"idToken"`
	Code     string `json:"code"`
}

// SignUpHandler registers a password account and starts its session.
func (s *Server) SignUpHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var model auth.SignUpModel
		if err := decodeJSON(w, r, &model); err != nil {
			s.writeServiceError(w, err, opAccount)
			return
		}

		session, err := s.accounts.SignUp(r.Context(), model)
		if err != nil {
			s.writeServiceError(w, err, opAccount)
			return
		}
		s.setSessionCookies(w, session)
		writeJSON(w, http.StatusCreated, session)
	}
}

// SignInHandler checks a password and starts a session.
func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var model auth.SignInModel
		if err := decodeJSON(w, r, &model); err != nil {
			s.writeServiceError(w, err, opAccount)
			return
		}

		session, err := s.accounts.SignIn(r.Context(), model)
		if err != nil {
			s.writeServiceError(w, err, opAccount)
			return
		}
		s.setSessionCookies(w, session)
		writeJSON(w, http.StatusOK, session)
	}
}

// GoogleSignUpHandler registers, or signs in again, a Google account.
func (s *Server) GoogleSignUpHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req googleSignUpRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeServiceError(w, err, opFederated)
			return
		}

		model := req.GoogleSignUpModel
		identity, err := s.googleIdentity(r.Context(), req.IDToken, req.Code)
		if err != nil {
			s.writeServiceError(w, err, opFederated)
			return
		}
		if identity != nil {
			model.GoogleID = identity.Subject
			model.Email = firstNonEmpty(model.Email, identity.Email)
			model.Name = firstNonEmpty(model.Name, identity.Name)
			model.Avatar = firstNonEmpty(model.Avatar, identity.Picture)
		}

		session, err := s.accounts.GoogleSignUp(r.Context(), model)
		if err != nil {
			s.writeServiceError(w, err, opFederated)
			return
		}
		s.setSessionCookies(w, session)
		writeJSON(w, http.StatusCreated, session)
	}
}

// GoogleSignInHandler starts a session for an existing Google account.
func (s *Server) GoogleSignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req googleSignInRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeServiceError(w, err, opFederated)
			return
		}

		googleID := req.GoogleID
		identity, err := s.googleIdentity(r.Context(), req.IDToken, req.Code)
		if err != nil {
			s.writeServiceError(w, err, opFederated)
			return
		}
		if identity != nil {
			googleID = identity.Subject
		}

		session, err := s.accounts.GoogleSignIn(r.Context(), googleID)
		if err != nil {
			s.writeServiceError(w, err, opFederated)
			return
		}
		s.setSessionCookies(w, session)
		writeJSON(w, http.StatusOK, session)
	}
}

// SignOutHandler ends the session named by the refresh token cookie. It needs
// no access token, so a client idle past the access lifetime can still sign
// out. The cookies are cleared whatever the outcome.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := refreshTokenFromRequest(r)
		s.clearSessionCookies(w)
		if refreshToken == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if err := s.accounts.SignOut(r.Context(), refreshToken); err != nil {
			s.writeServiceError(w, err, opRefresh)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
	}
}

// RefreshAccessTokenHandler exchanges the refresh token cookie for new
// tokens. Any failure clears both cookies.
func (s *Server) RefreshAccessTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.accounts.RefreshAccessToken(r.Context(), refreshTokenFromRequest(r))
		if err != nil {
			if errors.IsSessionError(err) {
				s.clearSessionCookies(w)
			}
			s.writeServiceError(w, err, opRefresh)
			return
		}
		s.setSessionCookies(w, session)
		writeJSON(w, http.StatusOK, session)
	}
}

// MeHandler returns the profile carried by the access token.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, ok := ProfileFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, errors.ErrInvalidToken.Error())
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

// googleIdentity verifies the Google artefact in a request. It returns nil
// when no verifier is configured and the body's googleId is trusted.
func (s *Server) googleIdentity(ctx context.Context, idToken, code string) (*federation.Identity, error) {
	if s.google == nil {
		return nil, nil
	}
	switch {
	case idToken != "":
		return s.google.VerifyIDToken(ctx, idToken)
	case code != "":
		return s.google.Exchange(ctx, code)
	default:
		return nil, &auth.RequestError{Field: "idToken", Reason: "is required"}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
