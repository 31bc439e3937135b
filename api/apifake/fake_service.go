package apifake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-zklogin/api"
	"github.com/jrsteele09/go-zklogin/oauth2"
)

var _ api.Service = (*FakeService)(nil)

// FakeService is an in-memory api.Service. Responses are set on the exported fields and every
// call is recorded.
type FakeService struct {
	Token     *oauth2.TokenResponse
	Salt      *api.SaltResult
	LoginRes  *api.LoginResponse
	VerifyRes *api.VerifyOTPResponse

	ExchangeErr error
	SaltErr     error
	LoginErr    error
	OTPErr      error

	// Panic makes ExchangeCode panic with this value when set.
	Panic any

	lock           sync.Mutex
	ExchangeCalls  []oauth2.TokenRequest
	SaltCalls      []SaltCall
	LoginCalls     []api.LoginRequest
	SendOTPCalls   []OTPCall
	VerifyOTPCalls []OTPCall
}

type SaltCall struct {
	IDToken  string
	Provider oauth2.Provider
}

type OTPCall struct {
	AccessToken string
	Phone       string
	Code        string
}

func NewFakeService() *FakeService {
	return &FakeService{}
}

func (f *FakeService) ExchangeCode(_ context.Context, req oauth2.TokenRequest) (*oauth2.TokenResponse, error) {
	f.lock.Lock()
	f.ExchangeCalls = append(f.ExchangeCalls, req)
	f.lock.Unlock()

	if f.Panic != nil {
		panic(f.Panic)
	}
	if f.ExchangeErr != nil {
		return nil, f.ExchangeErr
	}
	return f.Token, nil
}

func (f *FakeService) LookupSalt(_ context.Context, idToken string, provider oauth2.Provider) (*api.SaltResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.SaltCalls = append(f.SaltCalls, SaltCall{IDToken: idToken, Provider: provider})
	if f.SaltErr != nil {
		return nil, f.SaltErr
	}
	if f.Salt == nil {
		return &api.SaltResult{}, nil
	}
	return f.Salt, nil
}

func (f *FakeService) Login(_ context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.LoginCalls = append(f.LoginCalls, req)
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	if f.LoginRes == nil {
		return &api.LoginResponse{User: api.User{SuiAddress: req.SuiAddress}}, nil
	}
	return f.LoginRes, nil
}

func (f *FakeService) SendOTP(_ context.Context, accessToken, phone string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.SendOTPCalls = append(f.SendOTPCalls, OTPCall{AccessToken: accessToken, Phone: phone})
	return f.OTPErr
}

func (f *FakeService) VerifyOTP(_ context.Context, accessToken, phone, code string) (*api.VerifyOTPResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.VerifyOTPCalls = append(f.VerifyOTPCalls, OTPCall{AccessToken: accessToken, Phone: phone, Code: code})
	if f.OTPErr != nil {
		return nil, f.OTPErr
	}
	if f.VerifyRes == nil {
		return &api.VerifyOTPResponse{PhoneVerified: true}, nil
	}
	return f.VerifyRes, nil
}
