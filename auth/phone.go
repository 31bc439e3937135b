package auth

import (
	"context"

	"github.com/jrsteele09/go-zklogin/events"
	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/internal/utils"
	"github.com/jrsteele09/go-zklogin/sessions"
	"github.com/rs/zerolog/log"
)

// SendPhoneOTP asks the backend to text a verification code to phone.
func (s *Service) SendPhoneOTP(ctx context.Context, store *sessions.SessionStore, phone string) error {
	sess, err := s.Session(ctx, store)
	if err != nil {
		return err
	}
	phone, err = normalisePhone(phone)
	if err != nil {
		return err
	}
	return s.deps.API.SendOTP(ctx, sess.AccessToken, phone)
}

// VerifyPhoneOTP checks the code with the backend and, on success, marks the session's phone as
// verified and the user as active.
func (s *Service) VerifyPhoneOTP(ctx context.Context, store *sessions.SessionStore, phone, code string) (*sessions.Session, error) {
	sess, err := s.Session(ctx, store)
	if err != nil {
		return nil, err
	}
	phone, err = normalisePhone(phone)
	if err != nil {
		return nil, err
	}
	code, err = validateOTP(code)
	if err != nil {
		return nil, err
	}

	res, err := s.deps.API.VerifyOTP(ctx, sess.AccessToken, phone, code)
	if err != nil {
		return nil, err
	}
	if !res.PhoneVerified {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "verification code was not accepted")
	}

	sess.PhoneVerified = true
	sess.Status = sessions.StatusActive
	if status := utils.Value(res.User).Status; status != "" {
		sess.Status = status
	}
	if err := store.Write(ctx, sess); err != nil {
		return nil, err
	}

	s.publish(ctx, events.SessionEvent{
		Type:      events.PhoneVerified,
		ProfileID: store.ProfileID(),
		Provider:  sess.Provider.String(),
		Address:   sess.Address,
		UserID:    sess.UserID,
	})
	log.Info().Str("provider", sess.Provider.String()).Msg("phone verified")
	return sess, nil
}
