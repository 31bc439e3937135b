package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	folderEnvVar    = "FOLDER"
	frontendBaseVar = "FRONTEND_BASE_URL"
	redisURLVar     = "REDIS_URL"
	corsOriginsVar  = "CORS_ALLOWED_ORIGINS"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Tanda zkLogin")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetFrontendBaseURL returns the public base URL of the frontend (e.g., "https://app.example.com").
// Redirect URIs and the default code-exchange proxy URL are resolved against it.
func (EnvVars) GetFrontendBaseURL() string {
	return strings.TrimSuffix(GetEnv(frontendBaseVar, "http://localhost:8080"), "/")
}

// GetRedisURL is optional; an empty value selects the in-process stores.
func (EnvVars) GetRedisURL() string {
	return GetEnv(redisURLVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
