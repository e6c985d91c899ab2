package server

import "net/http"

func (s *Server) initRoutes() {
	api := s.config.GetAPIURL()

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// ACCOUNTS
	s.RegisterRouteFunc("POST "+api+RouteSignUp, s.SignUpHandler())
	s.RegisterRouteFunc("POST "+api+RouteSignIn, s.SignInHandler())
	s.RegisterRouteFunc("POST "+api+RouteGoogleSignUp, s.GoogleSignUpHandler())
	s.RegisterRouteFunc("POST "+api+RouteGoogleSignIn, s.GoogleSignInHandler())
	s.RegisterRouteFunc("POST "+api+RouteRefresh, s.RefreshAccessTokenHandler())
	s.RegisterRouteFunc("POST "+api+RouteSignOut, s.SignOutHandler())

	// USERS
	s.RegisterRouteHandler("GET "+api+RouteMe, ChainMiddleware(s.MeHandler(), s.RequireAuth))
}

// HealthHandler reports that the process is serving requests.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
