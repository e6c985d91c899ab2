package server

// Route path constants. Account routes are mounted under the configured API
// URL prefix.
const (
	// Auth Routes
	RouteSignUp       = "/accounts/auth/signup"
	RouteSignIn       = "/accounts/auth/signin"
	RouteGoogleSignUp = "/accounts/auth/google/signup"
	RouteGoogleSignIn = "/accounts/auth/google/signin"
	RouteSignOut      = "/accounts/auth/signout"
	RouteRefresh      = "/accounts/auth/accessToken/refresh"

	// User Routes
	RouteMe = "/users/me"

	// Health
	RouteHealth = "/healthz"
)
