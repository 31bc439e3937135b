package auth

import (
	"context"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/sessions"
	"github.com/rs/zerolog/log"
)

// ConfirmAccount finishes a new user's login. The pending attempt is looked up by nonce in the
// caller's profile and must already carry the identity token recorded by HandleCallback.
func (s *Service) ConfirmAccount(ctx context.Context, nonce, alias string, store *sessions.SessionStore) (*sessions.Session, error) {
	alias, err := validateAlias(alias)
	if err != nil {
		return nil, err
	}
	pending, err := s.deps.Pending.Read(ctx, store.ProfileID(), nonce)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, apperrors.ErrNoPendingLogin
	}
	if pending.JWT == "" {
		return nil, apperrors.Wrapf(apperrors.ErrMissingIdentityToken, "login has not been completed")
	}

	sess, err := s.establishSession(ctx, pending, pending.JWT, pending.UserSalt, alias, true)
	if err != nil {
		return nil, err
	}
	if err := s.persistSession(ctx, store, sess, nonce); err != nil {
		return nil, err
	}

	s.deps.Metrics.IncrementAccountConfirmed()
	log.Info().Str("provider", sess.Provider.String()).Str("nonce", nonce).Msg("account confirmed")
	return sess, nil
}
