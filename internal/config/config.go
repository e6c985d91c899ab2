package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	DatabaseConfig
	FederationConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetAPIURL() string
	GetLogLevel() string
	GetEnv() string
	IsProduction() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Database
	Federation
}

// New returns a Config that reads from the process environment only.
func New() Config {
	return newMainConfig(nil)
}

// Load returns a Config backed by the YAML file at path. Keys in the file are
// the lower-cased environment variable names (e.g. "mongo_uri"); a set
// environment variable always wins over the file.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	values := map[string]string{}
	if err := yaml.NewDecoder(f).Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	return newMainConfig(&source{file: values}), nil
}

func newMainConfig(src *source) mainConfig {
	return mainConfig{
		EnvVars:    EnvVars{src: src},
		Cors:       Cors{src: src},
		Tokens:     Tokens{src: src},
		Database:   Database{src: src},
		Federation: Federation{src: src},
	}
}

// source resolves a key from the environment, then the config file.
type source struct {
	file map[string]string
}

func (s *source) get(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if s != nil {
		if value, ok := s.file[strings.ToLower(envVar)]; ok && value != "" {
			return value
		}
	}
	return defaultValue
}
