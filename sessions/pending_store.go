package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/kvstore"
	"github.com/rs/zerolog/log"
)

const pendingKeyPrefix = "pending:"

// PendingStore keeps PendingLogin records keyed by browser profile and nonce. A record is only
// visible to the profile that started the login. Records expire after the configured lifetime;
// abandoned logins are never cleaned up explicitly.
type PendingStore struct {
	kv  kvstore.Store
	ttl time.Duration
}

func NewPendingStore(kv kvstore.Store, ttl time.Duration) *PendingStore {
	return &PendingStore{kv: kv, ttl: ttl}
}

func (s *PendingStore) scoped(profileID string) kvstore.Store {
	return kvstore.Prefixed(s.kv, profileKeyPrefix(profileID)+pendingKeyPrefix)
}

// Save stores the record under the profile and its nonce, replacing any previous record.
func (s *PendingStore) Save(ctx context.Context, profileID string, p *PendingLogin) error {
	if profileID == "" {
		return apperrors.Wrapf(apperrors.ErrInternal, "pending login requires a profile")
	}
	if p == nil || p.Nonce == "" {
		return apperrors.Wrapf(apperrors.ErrInternal, "pending login requires a nonce")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return apperrors.Wrapf(err, "encode pending login")
	}
	if err := s.scoped(profileID).Set(ctx, p.Nonce, string(data), s.ttl); err != nil {
		return apperrors.Wrapf(err, "save pending login")
	}
	return nil
}

// Read returns the profile's record for nonce, or nil if it is absent, expired, unreadable or
// belongs to another profile.
func (s *PendingStore) Read(ctx context.Context, profileID, nonce string) (*PendingLogin, error) {
	if profileID == "" || nonce == "" {
		return nil, nil
	}
	raw, err := s.scoped(profileID).Get(ctx, nonce)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "read pending login")
	}
	var p PendingLogin
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		log.Warn().Str("profile", profileID).Str("nonce", nonce).Msg("discarding malformed pending login")
		return nil, nil
	}
	return &p, nil
}

func (s *PendingStore) Remove(ctx context.Context, profileID, nonce string) error {
	if err := s.scoped(profileID).Delete(ctx, nonce); err != nil {
		return apperrors.Wrapf(err, "remove pending login")
	}
	return nil
}
