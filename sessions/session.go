package sessions

import (
	"time"

	"github.com/jrsteele09/go-zklogin/oauth2"
)

// UserStatus is the backend account status of a logged-in user.
type UserStatus string

const (
	StatusPendingPhone UserStatus = "PENDING_PHONE"
	StatusActive       UserStatus = "ACTIVE"
)

// PendingLogin bridges the provider redirect: it holds everything generated before the
// redirect that the callback needs afterwards. Records are keyed by nonce.
type PendingLogin struct {
	Provider           oauth2.Provider `json:"provider"`
	Nonce              string          `json:"nonce"`
	MaxEpoch           string          `json:"maxEpoch"`
	Randomness         string          `json:"randomness"`
	SecretKey          string          `json:"secretKey"`
	UserSalt           string          `json:"userSalt"`
	EphemeralPublicKey string          `json:"ephemeralPublicKey"`
	JWT                string          `json:"jwt,omitempty"` // set once the provider token is known and the user is new
	CreatedAt          time.Time       `json:"createdAt"`
}

// Session is the authenticated state persisted per browser profile.
type Session struct {
	Provider   oauth2.Provider `json:"provider"`
	Address    string          `json:"address"`
	JWT        string          `json:"jwt"`
	UserSalt   string          `json:"userSalt"`
	MaxEpoch   string          `json:"maxEpoch"`
	Randomness string          `json:"randomness"`

	Iss string `json:"iss"`
	Sub string `json:"sub"`
	Aud string `json:"aud"`
	Exp int64  `json:"exp"`

	AccessToken   string     `json:"accessToken"`
	IsNewUser     bool       `json:"isNewUser"`
	PhoneVerified bool       `json:"phoneVerified"`
	UserID        string     `json:"userId,omitempty"`
	Status        UserStatus `json:"status,omitempty"`

	// Only present for sessions created through account confirmation.
	SecretKey          string `json:"secretKey,omitempty"`
	EphemeralPublicKey string `json:"ephemeralPublicKey,omitempty"`
}

// NeedsPhoneVerification reports whether the user must verify a phone number before continuing.
func (s *Session) NeedsPhoneVerification() bool {
	return s.Status == StatusPendingPhone
}
