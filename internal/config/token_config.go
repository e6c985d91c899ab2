package config

import (
	"runtime"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type TokenConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetPasswordHashConcurrency() int
}

type Tokens struct {
	src *source
}

var _ TokenConfig = Tokens{}

func (t Tokens) GetAccessTokenSecret() string {
	return t.src.get("JWT_ACCESS_TOKEN_SECRET", "")
}

func (t Tokens) GetRefreshTokenSecret() string {
	return t.src.get("JWT_REFRESH_TOKEN_SECRET", "")
}

func (t Tokens) GetAccessTokenExpiry() time.Duration {
	return t.src.duration("ACCESS_TOKEN_EXPIRY", 5*time.Minute)
}

func (t Tokens) GetRefreshTokenExpiry() time.Duration {
	return t.src.duration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour) // 7 days
}

// GetPasswordHashConcurrency bounds how many bcrypt operations run at once.
func (t Tokens) GetPasswordHashConcurrency() int {
	return t.src.integer("PASSWORD_HASH_CONCURRENCY", runtime.GOMAXPROCS(0))
}

func (s *source) duration(envVar string, defaultValue time.Duration) time.Duration {
	raw := s.get(envVar, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("var", envVar).Str("value", raw).Msg("invalid duration, using default")
		return defaultValue
	}
	return d
}

func (s *source) integer(envVar string, defaultValue int) int {
	raw := s.get(envVar, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Warn().Str("var", envVar).Str("value", raw).Msg("invalid number, using default")
		return defaultValue
	}
	return n
}
