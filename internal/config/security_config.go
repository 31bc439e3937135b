package config

import "time"

type SecurityConfig interface {
	GetPendingLoginTTL() time.Duration
	GetSuccessRedirectDelay() time.Duration
	GetProfileCookieMaxAge() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetPendingLoginTTL bounds how long an abandoned login attempt survives in storage.
func (Security) GetPendingLoginTTL() time.Duration {
	return 30 * time.Minute
}

func (Security) GetSuccessRedirectDelay() time.Duration {
	return 1500 * time.Millisecond
}

func (Security) GetProfileCookieMaxAge() time.Duration {
	return 365 * 24 * time.Hour
}
