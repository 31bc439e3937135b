package config

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	BackendConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetFrontendBaseURL() string
	GetRedisURL() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Backend
	Security
}

func New() Config {
	return mainConfig{}
}
