package auth

import (
	"context"
	"fmt"
	"net/url"
	"time"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/internal/metrics"
	"github.com/jrsteele09/go-zklogin/oauth2"
	"github.com/jrsteele09/go-zklogin/sessions"
	"github.com/jrsteele09/go-zklogin/zklogin"
	"github.com/rs/zerolog/log"
)

// CallbackState is the progress of a callback as shown to the user.
type CallbackState string

const (
	StateIdle    CallbackState = "idle"
	StateLoading CallbackState = "loading"
	StateSuccess CallbackState = "success"
	StateError   CallbackState = "error"
)

// Handoff carries a new user to the account confirmation step.
type Handoff struct {
	Nonce    string          `json:"nonce"`
	Salt     string          `json:"salt"`
	Provider oauth2.Provider `json:"provider"`
}

// CallbackResult is the outcome of HandleCallback. History lists every state visited, in order.
type CallbackResult struct {
	State     CallbackState     `json:"state"`
	History   []CallbackState   `json:"history"`
	Message   string            `json:"message,omitempty"`
	NextRoute string            `json:"nextRoute,omitempty"`
	Delay     time.Duration     `json:"-"`
	Session   *sessions.Session `json:"-"`
	Handoff   *Handoff          `json:"handoff,omitempty"`
}

func newCallbackResult() *CallbackResult {
	return &CallbackResult{State: StateIdle, History: []CallbackState{StateIdle}}
}

func (r *CallbackResult) transition(state CallbackState) {
	r.State = state
	r.History = append(r.History, state)
}

func (r *CallbackResult) fail(msg string) *CallbackResult {
	if msg == "" {
		msg = fallbackErrorMessage
	}
	r.Message = msg
	r.NextRoute = ""
	r.Session = nil
	r.Handoff = nil
	r.transition(StateError)
	return r
}

// HandleCallback completes a login from the provider redirect query. It never returns an error:
// every failure, including a panic in a collaborator, ends in StateError with a message.
func (s *Service) HandleCallback(ctx context.Context, query url.Values, store *sessions.SessionStore) (result *CallbackResult) {
	start := time.Now()
	result = newCallbackResult()
	outcome := metrics.OutcomeError
	defer func() {
		s.deps.Metrics.ObserveCallback(outcome, start)
	}()

	if providerErr := query.Get("error"); providerErr != "" {
		log.Info().Str("error", providerErr).Msg("provider denied login")
		return result.fail(providerErrorMessage(providerErr, query.Get("error_description")))
	}

	code := query.Get("code")
	state, err := decodeState(query.Get("state"))
	if code == "" || err != nil {
		return result.fail(apperrors.ErrMissingCallbackParams.Error())
	}

	pending, err := s.deps.Pending.Read(ctx, store.ProfileID(), state.Nonce)
	if err != nil {
		return result.fail(errorMessage(err))
	}
	if pending == nil || pending.Provider != state.Provider {
		log.Warn().Str("profile", store.ProfileID()).Str("nonce", state.Nonce).Str("provider", state.Provider.String()).Msg("callback without pending login")
		return result.fail(apperrors.ErrNoPendingLogin.Error())
	}

	result.transition(StateLoading)

	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("nonce", state.Nonce).Msgf("panic during callback: %v", r)
				err = fmt.Errorf("%v", r)
			}
		}()
		outcome, err = s.completeCallback(ctx, pending, code, store, result)
		return err
	}()
	if err != nil {
		outcome = metrics.OutcomeError
		log.Warn().Err(err).Str("provider", pending.Provider.String()).Str("nonce", pending.Nonce).Msg("callback failed")
		return result.fail(errorMessage(err))
	}
	return result
}

// completeCallback exchanges the code and branches on whether the backend knows the user.
func (s *Service) completeCallback(ctx context.Context, pending *sessions.PendingLogin, code string, store *sessions.SessionStore, result *CallbackResult) (string, error) {
	token, err := s.deps.API.ExchangeCode(ctx, oauth2.TokenRequest{
		Provider:    pending.Provider,
		Code:        code,
		RedirectURI: s.deps.Config.GetRedirectURI(),
	})
	if err != nil {
		return "", err
	}
	if token == nil || token.IDToken == "" {
		return "", apperrors.ErrMissingIdentityToken
	}

	salt, err := s.deps.API.LookupSalt(ctx, token.IDToken, pending.Provider)
	if err != nil {
		return "", err
	}

	if !salt.Exists {
		newSalt, err := zklogin.GenerateSalt()
		if err != nil {
			return "", err
		}
		pending.JWT = token.IDToken
		pending.UserSalt = newSalt
		if err := s.deps.Pending.Save(ctx, store.ProfileID(), pending); err != nil {
			return "", err
		}
		result.Handoff = &Handoff{Nonce: pending.Nonce, Salt: newSalt, Provider: pending.Provider}
		result.NextRoute = RouteConfirmAccount
		result.Message = "Almost there! Confirm your account to continue."
		result.transition(StateSuccess)
		log.Info().Str("provider", pending.Provider.String()).Str("nonce", pending.Nonce).Msg("new user, awaiting confirmation")
		return metrics.OutcomeNewUser, nil
	}

	sess, err := s.establishSession(ctx, pending, token.IDToken, salt.Salt, "", false)
	if err != nil {
		return "", err
	}
	if err := s.persistSession(ctx, store, sess, pending.Nonce); err != nil {
		return "", err
	}

	result.Session = sess
	result.NextRoute = RouteDashboard
	if sess.NeedsPhoneVerification() {
		result.NextRoute = RouteVerifyPhone
	}
	result.Delay = s.deps.Config.GetSuccessRedirectDelay()
	result.Message = "Login successful!"
	result.transition(StateSuccess)
	log.Info().Str("provider", sess.Provider.String()).Str("nonce", pending.Nonce).Str("route", result.NextRoute).Msg("user logged in")
	return metrics.OutcomeExistingUser, nil
}
