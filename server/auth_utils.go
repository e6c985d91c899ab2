package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-account-service/auth"
	"github.com/jrsteele09/go-account-service/token"
)

const (
	// accessTokenCookie carries the short-lived access token
	accessTokenCookie = "JWTAccessToken"
	// refreshTokenCookie carries the refresh token; it is never sent in a body
	refreshTokenCookie = "JWTRefreshToken"
)

// setSessionCookies delivers both tokens. Each cookie lives exactly as long as
// the codec makes its token live.
func (s *Server) setSessionCookies(w http.ResponseWriter, session *auth.Session) {
	http.SetCookie(w, s.sessionCookie(accessTokenCookie, session.AccessToken, s.accounts.TokenTTL(token.KindAccess)))
	http.SetCookie(w, s.sessionCookie(refreshTokenCookie, session.RefreshToken, s.accounts.TokenTTL(token.KindRefresh)))
}

// clearSessionCookies tells the browser to drop both tokens.
func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		cookie := s.sessionCookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		http.SetCookie(w, cookie)
	}
}

func (s *Server) sessionCookie(name, value string, ttl time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.config.IsProduction() {
		sameSite = http.SameSiteStrictMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: sameSite,
		MaxAge:   int(ttl.Seconds()),
	}
}

func refreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
