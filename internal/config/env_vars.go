package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	apiURLVar      = "API_URL"
	logLevelEnvVar = "LOG_LEVEL"
	envEnvVar      = "ENV"

	envProduction = "PRODUCTION"
)

type EnvVars struct {
	src *source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.src.get(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.src.get(appNameVar, "Go Account Service")
}

// GetAPIURL is the prefix every API route is mounted under.
func (e EnvVars) GetAPIURL() string {
	return strings.TrimSuffix(e.src.get(apiURLVar, "/api/v1"), "/")
}

func (e EnvVars) GetLogLevel() string {
	return e.src.get(logLevelEnvVar, "info")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.src.get(envEnvVar, "DEV"))
}

func (e EnvVars) IsProduction() bool {
	return e.GetEnv() == envProduction
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
