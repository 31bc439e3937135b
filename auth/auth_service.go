package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/jrsteele09/go-zklogin/api"
	"github.com/jrsteele09/go-zklogin/events"
	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/internal/metrics"
	"github.com/jrsteele09/go-zklogin/oauth2"
	"github.com/jrsteele09/go-zklogin/sessions"
	"github.com/jrsteele09/go-zklogin/zklogin"
	"github.com/rs/zerolog/log"
)

// Deps holds the collaborators of the Service.
type Deps struct {
	Epochs  EpochSource            // Current chain epoch
	API     api.Service            // Code-exchange proxy and backend
	Pending *sessions.PendingStore // Login attempts in flight, keyed by profile and nonce
	Events  events.Publisher       // Optional; session lifecycle events
	Metrics *metrics.Metrics       // Optional
	Config  Config
}

// Service runs the zkLogin flow: it builds the provider redirect, completes the callback and
// turns a provider identity into a persisted session.
type Service struct {
	deps    Deps
	nowTime func() time.Time // injectable for testing
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(deps Deps, opts ...ServiceOption) *Service {
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	s := &Service{
		deps:    deps,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginRequest is where to send the browser to start a login.
type LoginRequest struct {
	AuthURL string `json:"authUrl"`
	Nonce   string `json:"nonce"`
}

// BuildZkLoginRequest prepares a login attempt: a fresh ephemeral key and randomness bound to the
// nonce, the user's salt, and the provider authorization URL. The attempt is persisted under its
// nonce in the caller's profile, so only a callback from the same profile can pick it up.
func (s *Service) BuildZkLoginRequest(ctx context.Context, provider oauth2.Provider, store *sessions.SessionStore) (*LoginRequest, error) {
	if !provider.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrUnsupportedProvider, "provider %q", provider)
	}
	if store.ProfileID() == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInternal, "login requires a browser profile")
	}
	clientID := s.deps.Config.GetClientID(provider.String())
	if clientID == "" {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "client id for %s is not configured", provider)
	}
	redirectURI := s.deps.Config.GetRedirectURI()
	if redirectURI == "" {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "redirect uri is not configured")
	}

	epoch, err := s.deps.Epochs.LatestEpoch(ctx)
	if err != nil {
		return nil, apperrors.Wrapf(err, "fetch current epoch")
	}
	maxEpoch := epoch + maxEpochOffset

	randomness, err := zklogin.GenerateRandomness()
	if err != nil {
		return nil, err
	}
	keyPair, err := zklogin.NewEphemeralKeyPair()
	if err != nil {
		return nil, err
	}
	nonce, err := zklogin.GenerateNonce(keyPair.PublicKey(), maxEpoch, randomness)
	if err != nil {
		return nil, err
	}
	secretKey, err := keyPair.SecretKey()
	if err != nil {
		return nil, err
	}

	salt, err := s.reusableSalt(ctx, store)
	if err != nil {
		return nil, err
	}

	state, err := encodeState(nonce, provider)
	if err != nil {
		return nil, err
	}
	authURL, err := provider.AuthorizationURL(clientID, redirectURI, state, nonce)
	if err != nil {
		return nil, err
	}

	pending := &sessions.PendingLogin{
		Provider:           provider,
		Nonce:              nonce,
		MaxEpoch:           strconv.FormatUint(maxEpoch, 10),
		Randomness:         randomness,
		SecretKey:          secretKey,
		UserSalt:           salt,
		EphemeralPublicKey: keyPair.ExtendedPublicKey(),
		CreatedAt:          s.nowTime().UTC(),
	}
	if err := s.deps.Pending.Save(ctx, store.ProfileID(), pending); err != nil {
		return nil, err
	}

	s.deps.Metrics.IncrementLoginRequest(provider.String())
	log.Info().Str("provider", provider.String()).Str("nonce", nonce).Uint64("maxEpoch", maxEpoch).Msg("zkLogin request built")
	return &LoginRequest{AuthURL: authURL, Nonce: nonce}, nil
}

// reusableSalt keeps the salt of an existing session so the address stays stable across logins.
func (s *Service) reusableSalt(ctx context.Context, store *sessions.SessionStore) (string, error) {
	sess, err := store.Read(ctx)
	if err != nil {
		return "", err
	}
	if sess != nil && sess.UserSalt != "" {
		return sess.UserSalt, nil
	}
	return zklogin.GenerateSalt()
}

// Session returns the session of the profile, or ErrNoSession.
func (s *Service) Session(ctx context.Context, store *sessions.SessionStore) (*sessions.Session, error) {
	sess, err := store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperrors.ErrNoSession
	}
	return sess, nil
}

// Logout removes the profile's session.
func (s *Service) Logout(ctx context.Context, store *sessions.SessionStore) error {
	sess, err := store.Read(ctx)
	if err != nil {
		return err
	}
	if err := store.Clear(ctx); err != nil {
		return err
	}
	event := events.SessionEvent{Type: events.SessionCleared, ProfileID: store.ProfileID()}
	if sess != nil {
		event.Provider = sess.Provider.String()
		event.Address = sess.Address
		event.UserID = sess.UserID
	}
	s.publish(ctx, event)
	return nil
}

// establishSession derives the address, logs in with the backend and assembles the session.
// Nothing is persisted here.
func (s *Service) establishSession(ctx context.Context, pending *sessions.PendingLogin, idToken, salt, alias string, isNewUser bool) (*sessions.Session, error) {
	address, err := zklogin.DeriveAddress(idToken, salt, false)
	if err != nil {
		return nil, err
	}

	res, err := s.deps.API.Login(ctx, api.LoginRequest{
		JWT:        idToken,
		SuiAddress: address,
		Salt:       salt,
		Alias:      alias,
	})
	if err != nil {
		return nil, err
	}
	if res.User.SuiAddress != "" && res.User.SuiAddress != address {
		return nil, apperrors.Wrapf(apperrors.ErrBackend, "backend registered a different address")
	}

	claims, err := zklogin.ParseJWT(idToken)
	if err != nil {
		return nil, err
	}

	sess := &sessions.Session{
		Provider:      pending.Provider,
		Address:       address,
		JWT:           idToken,
		UserSalt:      salt,
		MaxEpoch:      pending.MaxEpoch,
		Randomness:    pending.Randomness,
		Iss:           claims.Iss,
		Sub:           claims.Sub,
		Aud:           claims.Aud,
		Exp:           claims.Exp,
		AccessToken:   res.AccessToken,
		IsNewUser:     isNewUser,
		PhoneVerified: res.User.PhoneVerified,
		UserID:        res.User.ID,
		Status:        res.User.Status,
	}
	if isNewUser {
		sess.SecretKey = pending.SecretKey
		sess.EphemeralPublicKey = pending.EphemeralPublicKey
	}
	return sess, nil
}

// persistSession writes the session and then drops the pending attempt it came from.
func (s *Service) persistSession(ctx context.Context, store *sessions.SessionStore, sess *sessions.Session, nonce string) error {
	if err := store.Write(ctx, sess); err != nil {
		return err
	}
	if err := s.deps.Pending.Remove(ctx, store.ProfileID(), nonce); err != nil {
		log.Warn().Err(err).Str("nonce", nonce).Msg("failed to remove pending login")
	}
	s.publish(ctx, events.SessionEvent{
		Type:      events.SessionCreated,
		ProfileID: store.ProfileID(),
		Provider:  sess.Provider.String(),
		Address:   sess.Address,
		UserID:    sess.UserID,
		IsNewUser: sess.IsNewUser,
	})
	return nil
}

// publish never fails the flow.
func (s *Service) publish(ctx context.Context, event events.SessionEvent) {
	event.At = s.nowTime().UTC()
	if err := s.deps.Events.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event", string(event.Type)).Msg("failed to publish session event")
	}
}
