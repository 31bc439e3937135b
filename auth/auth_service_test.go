package auth_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-zklogin/api"
	"github.com/jrsteele09/go-zklogin/api/apifake"
	"github.com/jrsteele09/go-zklogin/auth"
	"github.com/jrsteele09/go-zklogin/events"
	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/kvstore"
	"github.com/jrsteele09/go-zklogin/oauth2"
	"github.com/jrsteele09/go-zklogin/sessions"
	"github.com/jrsteele09/go-zklogin/zklogin"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "client-1.apps.googleusercontent.com"
	testRedirectURI = "http://localhost:8080/auth/callback"
	testIssuer      = "https://accounts.google.com"
	testSubject     = "110169484474386276334"
	testEpoch       = 10
	testNonce       = "n1"
	testCode        = "abc123"
	testSalt        = "42"
	testProfile     = "profile-1"
)

type fakeEpochs struct {
	epoch uint64
	err   error
	calls int
}

func (f *fakeEpochs) LatestEpoch(context.Context) (uint64, error) {
	f.calls++
	return f.epoch, f.err
}

type fakeConfig struct {
	clientIDs map[string]string
}

func (c fakeConfig) GetClientID(provider string) string     { return c.clientIDs[provider] }
func (c fakeConfig) GetRedirectURI() string                 { return testRedirectURI }
func (c fakeConfig) GetSuccessRedirectDelay() time.Duration { return 1500 * time.Millisecond }

type recordingPublisher struct {
	lock   sync.Mutex
	events []events.SessionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.SessionEvent) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.events = append(p.events, e)
	return nil
}

// testFixture holds all test dependencies
type testFixture struct {
	kv       *kvstore.MemoryStore
	epochs   *fakeEpochs
	api      *apifake.FakeService
	pending  *sessions.PendingStore
	sessions *sessions.SessionStore
	events   *recordingPublisher
	service  *auth.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	kv := kvstore.NewMemoryStore()
	f := &testFixture{
		kv:       kv,
		epochs:   &fakeEpochs{epoch: testEpoch},
		api:      apifake.NewFakeService(),
		pending:  sessions.NewPendingStore(kv, 30*time.Minute),
		sessions: sessions.NewSessionStore(kv, testProfile),
		events:   &recordingPublisher{},
	}
	f.service = auth.NewService(auth.Deps{
		Epochs:  f.epochs,
		API:     f.api,
		Pending: f.pending,
		Events:  f.events,
		Config:  fakeConfig{clientIDs: map[string]string{"google": testClientID}},
	})
	return f
}

func identityToken(t *testing.T) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   testIssuer,
		"sub":   testSubject,
		"aud":   testClientID,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"nonce": testNonce,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func encodeState(t *testing.T, nonce string, provider oauth2.Provider) string {
	t.Helper()
	data, err := json.Marshal(map[string]string{"nonce": nonce, "provider": string(provider)})
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(data)
}

func (f *testFixture) savePending(t *testing.T) *sessions.PendingLogin {
	t.Helper()
	keyPair, err := zklogin.NewEphemeralKeyPair()
	require.NoError(t, err)
	secretKey, err := keyPair.SecretKey()
	require.NoError(t, err)

	pending := &sessions.PendingLogin{
		Provider:           oauth2.ProviderGoogle,
		Nonce:              testNonce,
		MaxEpoch:           "12",
		Randomness:         "12345678901234567890",
		SecretKey:          secretKey,
		UserSalt:           "777",
		EphemeralPublicKey: keyPair.ExtendedPublicKey(),
		CreatedAt:          time.Now().UTC(),
	}
	require.NoError(t, f.pending.Save(context.Background(), testProfile, pending))
	return pending
}

// seedSession writes an unrelated session that a failed callback must leave untouched.
func (f *testFixture) seedSession(t *testing.T) *sessions.Session {
	t.Helper()
	token := identityToken(t)
	address, err := zklogin.DeriveAddress(token, "9001", false)
	require.NoError(t, err)
	sess := &sessions.Session{
		Provider:    oauth2.ProviderGoogle,
		Address:     address,
		JWT:         token,
		UserSalt:    "9001",
		AccessToken: "previous",
		UserID:      "user-0",
		Status:      sessions.StatusActive,
	}
	require.NoError(t, f.sessions.Write(context.Background(), sess))
	return sess
}

func callbackQuery(t *testing.T) url.Values {
	return url.Values{
		"code":  {testCode},
		"state": {encodeState(t, testNonce, oauth2.ProviderGoogle)},
	}
}

func states(s ...auth.CallbackState) []auth.CallbackState {
	return s
}

func TestBuildZkLoginRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("builds the authorization url and pending login", func(t *testing.T) {
		f := setupTestFixture(t)
		req, err := f.service.BuildZkLoginRequest(ctx, oauth2.ProviderGoogle, f.sessions)
		require.NoError(t, err)
		require.Len(t, req.Nonce, zklogin.NonceLength)

		u, err := url.Parse(req.AuthURL)
		require.NoError(t, err)
		q := u.Query()
		require.Equal(t, "accounts.google.com", u.Host)
		require.Equal(t, testClientID, q.Get("client_id"))
		require.Equal(t, testRedirectURI, q.Get("redirect_uri"))
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, "openid email profile", q.Get("scope"))
		require.Equal(t, req.Nonce, q.Get("nonce"))
		require.Equal(t, encodeState(t, req.Nonce, oauth2.ProviderGoogle), q.Get("state"))

		pending, err := f.pending.Read(ctx, testProfile, req.Nonce)
		require.NoError(t, err)
		require.NotNil(t, pending)
		require.Equal(t, "12", pending.MaxEpoch)
		require.Equal(t, oauth2.ProviderGoogle, pending.Provider)
		require.NotEmpty(t, pending.UserSalt)
		require.Empty(t, pending.JWT)

		keyPair, err := zklogin.ParseSecretKey(pending.SecretKey)
		require.NoError(t, err)
		require.Equal(t, pending.EphemeralPublicKey, keyPair.ExtendedPublicKey())
		nonce, err := zklogin.GenerateNonce(keyPair.PublicKey(), 12, pending.Randomness)
		require.NoError(t, err)
		require.Equal(t, req.Nonce, nonce)
	})

	t.Run("every attempt is fresh", func(t *testing.T) {
		f := setupTestFixture(t)
		first, err := f.service.BuildZkLoginRequest(ctx, oauth2.ProviderGoogle, f.sessions)
		require.NoError(t, err)
		second, err := f.service.BuildZkLoginRequest(ctx, oauth2.ProviderGoogle, f.sessions)
		require.NoError(t, err)
		require.NotEqual(t, first.Nonce, second.Nonce)

		p1, err := f.pending.Read(ctx, testProfile, first.Nonce)
		require.NoError(t, err)
		p2, err := f.pending.Read(ctx, testProfile, second.Nonce)
		require.NoError(t, err)
		require.NotEqual(t, p1.SecretKey, p2.SecretKey)
		require.NotEqual(t, p1.Randomness, p2.Randomness)
	})

	t.Run("reuses the salt of the current session", func(t *testing.T) {
		f := setupTestFixture(t)
		token := identityToken(t)
		address, err := zklogin.DeriveAddress(token, testSalt, false)
		require.NoError(t, err)
		require.NoError(t, f.sessions.Write(ctx, &sessions.Session{
			Provider: oauth2.ProviderGoogle, Address: address, JWT: token, UserSalt: testSalt,
		}))

		req, err := f.service.BuildZkLoginRequest(ctx, oauth2.ProviderGoogle, f.sessions)
		require.NoError(t, err)
		pending, err := f.pending.Read(ctx, testProfile, req.Nonce)
		require.NoError(t, err)
		require.Equal(t, testSalt, pending.UserSalt)
	})

	t.Run("missing client id fails before any network call", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.BuildZkLoginRequest(ctx, oauth2.ProviderFacebook, f.sessions)
		require.ErrorIs(t, err, apperrors.ErrConfiguration)
		require.Zero(t, f.epochs.calls)
	})

	t.Run("epoch failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.epochs.err = errors.New("rpc unavailable")
		_, err := f.service.BuildZkLoginRequest(ctx, oauth2.ProviderGoogle, f.sessions)
		require.ErrorContains(t, err, "rpc unavailable")
	})
}

func TestHandleCallback_ExistingUser(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	pending := f.savePending(t)
	token := identityToken(t)
	f.api.Token = &oauth2.TokenResponse{IDToken: token}
	f.api.Salt = &api.SaltResult{Exists: true, Salt: testSalt}
	f.api.LoginRes = &api.LoginResponse{
		AccessToken: "access-1",
		User:        api.User{ID: "user-1", Status: sessions.StatusActive},
	}

	result := f.service.HandleCallback(ctx, callbackQuery(t), f.sessions)
	require.Equal(t, auth.StateSuccess, result.State, result.Message)
	require.Equal(t, states(auth.StateIdle, auth.StateLoading, auth.StateSuccess), result.History)
	require.Equal(t, auth.RouteDashboard, result.NextRoute)
	require.Equal(t, 1500*time.Millisecond, result.Delay)
	require.Nil(t, result.Handoff)

	require.Len(t, f.api.ExchangeCalls, 1)
	require.Equal(t, oauth2.TokenRequest{Provider: oauth2.ProviderGoogle, Code: testCode, RedirectURI: testRedirectURI}, f.api.ExchangeCalls[0])
	require.Equal(t, []apifake.SaltCall{{IDToken: token, Provider: oauth2.ProviderGoogle}}, f.api.SaltCalls)

	expected, err := zklogin.DeriveAddress(token, testSalt, false)
	require.NoError(t, err)
	require.Len(t, f.api.LoginCalls, 1)
	require.Equal(t, api.LoginRequest{JWT: token, SuiAddress: expected, Salt: testSalt}, f.api.LoginCalls[0])

	sess, err := f.sessions.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, expected, sess.Address)
	require.Equal(t, testSalt, sess.UserSalt)
	require.Equal(t, pending.MaxEpoch, sess.MaxEpoch)
	require.Equal(t, pending.Randomness, sess.Randomness)
	require.Equal(t, testIssuer, sess.Iss)
	require.Equal(t, testSubject, sess.Sub)
	require.Equal(t, testClientID, sess.Aud)
	require.Equal(t, "access-1", sess.AccessToken)
	require.Equal(t, "user-1", sess.UserID)
	require.False(t, sess.IsNewUser)
	require.Empty(t, sess.SecretKey)

	left, err := f.pending.Read(ctx, testProfile, testNonce)
	require.NoError(t, err)
	require.Nil(t, left)

	require.Len(t, f.events.events, 1)
	require.Equal(t, events.SessionCreated, f.events.events[0].Type)
	require.Equal(t, testProfile, f.events.events[0].ProfileID)
}

func TestHandleCallback_PendingPhone(t *testing.T) {
	f := setupTestFixture(t)
	f.savePending(t)
	f.api.Token = &oauth2.TokenResponse{IDToken: identityToken(t)}
	f.api.Salt = &api.SaltResult{Exists: true, Salt: testSalt}
	f.api.LoginRes = &api.LoginResponse{AccessToken: "a", User: api.User{Status: sessions.StatusPendingPhone}}

	result := f.service.HandleCallback(context.Background(), callbackQuery(t), f.sessions)
	require.Equal(t, auth.StateSuccess, result.State)
	require.Equal(t, auth.RouteVerifyPhone, result.NextRoute)
}

func TestHandleCallback_NewUser(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	pending := f.savePending(t)
	token := identityToken(t)
	f.api.Token = &oauth2.TokenResponse{IDToken: token}
	f.api.Salt = &api.SaltResult{Exists: false}

	result := f.service.HandleCallback(ctx, callbackQuery(t), f.sessions)
	require.Equal(t, auth.StateSuccess, result.State, result.Message)
	require.Equal(t, auth.RouteConfirmAccount, result.NextRoute)
	require.NotNil(t, result.Handoff)
	require.Equal(t, testNonce, result.Handoff.Nonce)
	require.Equal(t, oauth2.ProviderGoogle, result.Handoff.Provider)
	require.NotEqual(t, pending.UserSalt, result.Handoff.Salt)

	require.Empty(t, f.api.LoginCalls)
	sess, err := f.sessions.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)

	updated, err := f.pending.Read(ctx, testProfile, testNonce)
	require.NoError(t, err)
	require.Equal(t, token, updated.JWT)
	require.Equal(t, result.Handoff.Salt, updated.UserSalt)

	t.Run("confirm account", func(t *testing.T) {
		sess, err := f.service.ConfirmAccount(ctx, testNonce, " tanda-queen ", f.sessions)
		require.NoError(t, err)
		require.True(t, sess.IsNewUser)
		require.Equal(t, pending.SecretKey, sess.SecretKey)
		require.Equal(t, pending.EphemeralPublicKey, sess.EphemeralPublicKey)

		expected, err := zklogin.DeriveAddress(token, result.Handoff.Salt, false)
		require.NoError(t, err)
		require.Equal(t, expected, sess.Address)
		require.Len(t, f.api.LoginCalls, 1)
		require.Equal(t, "tanda-queen", f.api.LoginCalls[0].Alias)

		stored, err := f.sessions.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, sess, stored)

		left, err := f.pending.Read(ctx, testProfile, testNonce)
		require.NoError(t, err)
		require.Nil(t, left)
	})

	t.Run("confirm twice", func(t *testing.T) {
		_, err := f.service.ConfirmAccount(ctx, testNonce, "", f.sessions)
		require.ErrorIs(t, err, apperrors.ErrNoPendingLogin)
	})
}

func TestConfirmAccount_WithoutToken(t *testing.T) {
	f := setupTestFixture(t)
	f.savePending(t)
	_, err := f.service.ConfirmAccount(context.Background(), testNonce, "", f.sessions)
	require.ErrorIs(t, err, apperrors.ErrMissingIdentityToken)
	require.Empty(t, f.api.LoginCalls)
}

func TestHandleCallback_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		query      func(t *testing.T) url.Values
		setup      func(f *testFixture)
		message    string
		history    []auth.CallbackState
		noExchange bool
	}{
		{
			name: "provider denied",
			query: func(t *testing.T) url.Values {
				return url.Values{"error": {"access_denied"}, "error_description": {"User denied access"}}
			},
			message:    "access_denied: User denied access",
			history:    states(auth.StateIdle, auth.StateError),
			noExchange: true,
		},
		{
			name: "provider error without description",
			query: func(t *testing.T) url.Values {
				return url.Values{"error": {"server_error"}}
			},
			message:    "server_error",
			history:    states(auth.StateIdle, auth.StateError),
			noExchange: true,
		},
		{
			name: "missing code",
			query: func(t *testing.T) url.Values {
				return url.Values{"state": {encodeState(t, testNonce, oauth2.ProviderGoogle)}}
			},
			message:    "missing callback parameters",
			history:    states(auth.StateIdle, auth.StateError),
			noExchange: true,
		},
		{
			name: "undecodable state",
			query: func(t *testing.T) url.Values {
				return url.Values{"code": {testCode}, "state": {"%%%"}}
			},
			message:    "missing callback parameters",
			history:    states(auth.StateIdle, auth.StateError),
			noExchange: true,
		},
		{
			name: "unknown nonce",
			query: func(t *testing.T) url.Values {
				return url.Values{"code": {testCode}, "state": {encodeState(t, "other", oauth2.ProviderGoogle)}}
			},
			message:    "no pending login found",
			history:    states(auth.StateIdle, auth.StateError),
			noExchange: true,
		},
		{
			name:  "exchange rejected",
			query: callbackQuery,
			setup: func(f *testFixture) {
				f.api.ExchangeErr = &api.Error{Status: 400, Message: "invalid_grant", Kind: apperrors.ErrCodeExchange}
			},
			message: "invalid_grant",
			history: states(auth.StateIdle, auth.StateLoading, auth.StateError),
		},
		{
			name:  "empty identity token",
			query: callbackQuery,
			setup: func(f *testFixture) {
				f.api.Token = &oauth2.TokenResponse{}
			},
			message: "no identity token returned",
			history: states(auth.StateIdle, auth.StateLoading, auth.StateError),
		},
		{
			name:  "error without message",
			query: callbackQuery,
			setup: func(f *testFixture) {
				f.api.ExchangeErr = errors.New("")
			},
			message: "authentication failed",
			history: states(auth.StateIdle, auth.StateLoading, auth.StateError),
		},
		{
			name:  "collaborator panics",
			query: callbackQuery,
			setup: func(f *testFixture) {
				f.api.Panic = "boom"
			},
			message: "boom",
			history: states(auth.StateIdle, auth.StateLoading, auth.StateError),
		},
		{
			name:  "salt lookup fails",
			query: callbackQuery,
			setup: func(f *testFixture) {
				f.api.Token = &oauth2.TokenResponse{IDToken: "tok"}
				f.api.SaltErr = &api.Error{Status: 500, Message: "HTTP 500", Kind: apperrors.ErrBackend}
			},
			message: "HTTP 500",
			history: states(auth.StateIdle, auth.StateLoading, auth.StateError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.savePending(t)
			existing := f.seedSession(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			result := f.service.HandleCallback(ctx, tt.query(t), f.sessions)
			require.Equal(t, auth.StateError, result.State)
			require.Equal(t, tt.message, result.Message)
			require.Equal(t, tt.history, result.History)
			require.Nil(t, result.Session)
			if tt.noExchange {
				require.Empty(t, f.api.ExchangeCalls)
			}
			require.Empty(t, f.api.LoginCalls)

			sess, err := f.sessions.Read(ctx)
			require.NoError(t, err)
			require.Equal(t, existing, sess)
		})
	}
}

func TestPendingLoginIsScopedToProfile(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.savePending(t)
	f.api.Token = &oauth2.TokenResponse{IDToken: identityToken(t)}
	f.api.Salt = &api.SaltResult{Exists: false}
	other := sessions.NewSessionStore(f.kv, "profile-2")

	t.Run("callback from another profile", func(t *testing.T) {
		result := f.service.HandleCallback(ctx, callbackQuery(t), other)
		require.Equal(t, auth.StateError, result.State)
		require.Equal(t, "no pending login found", result.Message)
		require.Nil(t, result.Handoff)
		require.Empty(t, f.api.ExchangeCalls)
	})

	t.Run("confirm from another profile", func(t *testing.T) {
		result := f.service.HandleCallback(ctx, callbackQuery(t), f.sessions)
		require.Equal(t, auth.StateSuccess, result.State, result.Message)
		require.Equal(t, auth.RouteConfirmAccount, result.NextRoute)

		_, err := f.service.ConfirmAccount(ctx, testNonce, "", other)
		require.ErrorIs(t, err, apperrors.ErrNoPendingLogin)
		require.Empty(t, f.api.LoginCalls)

		sess, err := other.Read(ctx)
		require.NoError(t, err)
		require.Nil(t, sess)

		owned, err := f.pending.Read(ctx, testProfile, testNonce)
		require.NoError(t, err)
		require.NotNil(t, owned)
	})

	t.Run("login without a profile", func(t *testing.T) {
		_, err := f.service.BuildZkLoginRequest(ctx, oauth2.ProviderGoogle, nil)
		require.ErrorIs(t, err, apperrors.ErrInternal)
	})
}

func TestPhoneVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a session", func(t *testing.T) {
		f := setupTestFixture(t)
		err := f.service.SendPhoneOTP(ctx, f.sessions, "+15550100123")
		require.ErrorIs(t, err, apperrors.ErrNoSession)
	})

	f := setupTestFixture(t)
	token := identityToken(t)
	address, err := zklogin.DeriveAddress(token, testSalt, false)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Write(ctx, &sessions.Session{
		Provider:    oauth2.ProviderGoogle,
		Address:     address,
		JWT:         token,
		UserSalt:    testSalt,
		AccessToken: "access-1",
		Status:      sessions.StatusPendingPhone,
	}))

	t.Run("send", func(t *testing.T) {
		require.NoError(t, f.service.SendPhoneOTP(ctx, f.sessions, "+1 (555) 010-0123"))
		require.Equal(t, []apifake.OTPCall{{AccessToken: "access-1", Phone: "+15550100123"}}, f.api.SendOTPCalls)
	})

	t.Run("invalid phone", func(t *testing.T) {
		err := f.service.SendPhoneOTP(ctx, f.sessions, "5550100")
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("rejected code", func(t *testing.T) {
		f.api.VerifyRes = &api.VerifyOTPResponse{PhoneVerified: false}
		_, err := f.service.VerifyPhoneOTP(ctx, f.sessions, "+15550100123", "123456")
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)

		sess, err := f.sessions.Read(ctx)
		require.NoError(t, err)
		require.False(t, sess.PhoneVerified)
	})

	t.Run("verify", func(t *testing.T) {
		f.api.VerifyRes = nil
		sess, err := f.service.VerifyPhoneOTP(ctx, f.sessions, "+15550100123", " 123456 ")
		require.NoError(t, err)
		require.True(t, sess.PhoneVerified)
		require.Equal(t, "123456", f.api.VerifyOTPCalls[len(f.api.VerifyOTPCalls)-1].Code)
		require.Equal(t, sessions.StatusActive, sess.Status)

		stored, err := f.sessions.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, sess, stored)
		require.Equal(t, "access-1", stored.AccessToken)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	token := identityToken(t)
	address, err := zklogin.DeriveAddress(token, testSalt, false)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Write(ctx, &sessions.Session{Address: address, JWT: token, UserSalt: testSalt}))

	require.NoError(t, f.service.Logout(ctx, f.sessions))
	_, err = f.service.Session(ctx, f.sessions)
	require.ErrorIs(t, err, apperrors.ErrNoSession)
	require.Len(t, f.events.events, 1)
	require.Equal(t, events.SessionCleared, f.events.events[0].Type)
	require.Equal(t, address, f.events.events[0].Address)
}
