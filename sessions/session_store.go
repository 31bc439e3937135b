package sessions

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/kvstore"
	"github.com/jrsteele09/go-zklogin/zklogin"
	"github.com/rs/zerolog/log"
)

const sessionKey = "session"

// SessionStore holds the single Session of one browser profile.
type SessionStore struct {
	kv        kvstore.Store
	profileID string
}

// NewSessionStore scopes the session to profileID so that profiles sharing a backend never see
// each other's sessions.
func NewSessionStore(kv kvstore.Store, profileID string) *SessionStore {
	return &SessionStore{
		kv:        kvstore.Prefixed(kv, profileKeyPrefix(profileID)),
		profileID: profileID,
	}
}

func profileKeyPrefix(profileID string) string {
	return "profile:" + profileID + ":"
}

// ProfileID returns the browser profile the store is scoped to, or "" for a nil store.
func (s *SessionStore) ProfileID() string {
	if s == nil {
		return ""
	}
	return s.profileID
}

// Read returns the current session, or nil when there is none or it cannot be decoded.
func (s *SessionStore) Read(ctx context.Context) (*Session, error) {
	raw, err := s.kv.Get(ctx, sessionKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "read session")
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		log.Warn().Str("profile", s.profileID).Msg("discarding malformed session")
		return nil, nil
	}
	return &sess, nil
}

// Write replaces the stored session. The address must be the one derived from the session's
// identity token and salt; anything else is rejected with ErrSessionInvalid.
func (s *SessionStore) Write(ctx context.Context, sess *Session) error {
	if sess == nil {
		return apperrors.Wrapf(apperrors.ErrSessionInvalid, "nil session")
	}
	address, err := zklogin.DeriveAddress(sess.JWT, sess.UserSalt, false)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrSessionInvalid, "%s", err.Error())
	}
	if address != sess.Address {
		return apperrors.Wrapf(apperrors.ErrSessionInvalid, "address does not match identity token and salt")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return apperrors.Wrapf(err, "encode session")
	}
	if err := s.kv.Set(ctx, sessionKey, string(data), 0); err != nil {
		return apperrors.Wrapf(err, "write session")
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, sessionKey); err != nil {
		return apperrors.Wrapf(err, "clear session")
	}
	return nil
}
