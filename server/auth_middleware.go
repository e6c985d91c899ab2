package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-account-service/users"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyProfile stores the authenticated user's profile
const ContextKeyProfile ContextKey = "profile"

// RequireAuth admits requests carrying a valid access token, taken from the
// access token cookie or an Authorization bearer header.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := s.accounts.Authenticate(accessTokenFromRequest(r))
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("access denied")
			s.writeServiceError(w, err, opGuard)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyProfile, *profile)
		next(w, r.WithContext(ctx))
	}
}

// ProfileFromContext returns the profile stored by RequireAuth.
func ProfileFromContext(ctx context.Context) (users.Profile, bool) {
	profile, ok := ctx.Value(ContextKeyProfile).(users.Profile)
	return profile, ok
}

func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
