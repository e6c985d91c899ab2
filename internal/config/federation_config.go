package config

type FederationConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
	GetGoogleIssuer() string
}

type Federation struct {
	src *source
}

var _ FederationConfig = Federation{}

// GetGoogleClientID enables Google ID token verification when set.
func (f Federation) GetGoogleClientID() string {
	return f.src.get("GOOGLE_CLIENT_ID", "")
}

func (f Federation) GetGoogleClientSecret() string {
	return f.src.get("GOOGLE_CLIENT_SECRET", "")
}

func (f Federation) GetGoogleRedirectURL() string {
	return f.src.get("GOOGLE_REDIRECT_URL", "postmessage")
}

func (f Federation) GetGoogleIssuer() string {
	return f.src.get("GOOGLE_ISSUER", "https://accounts.google.com")
}
