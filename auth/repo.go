package auth

import (
	"context"
	"time"
)

// EpochSource reports the chain's current epoch. The ephemeral key stays valid until
// the current epoch plus maxEpochOffset.
type EpochSource interface {
	LatestEpoch(ctx context.Context) (uint64, error)
}

// Config is the part of the application configuration the login flow reads.
type Config interface {
	GetClientID(provider string) string
	GetRedirectURI() string
	GetSuccessRedirectDelay() time.Duration
}
