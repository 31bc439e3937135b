package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/oauth2"
)

const (
	saltPath      = "/v1/auth/salt"
	loginPath     = "/v1/auth/login"
	otpSendPath   = "/v1/auth/otp/send"
	otpVerifyPath = "/v1/auth/otp/verify"

	headerOAuthToken   = "x-oauth-token"
	headerAuthProvider = "x-auth-provider"

	defaultTimeout = 15 * time.Second
	maxBodySize    = 1 << 20
)

var _ Service = (*Client)(nil)

// Client talks HTTP to the code-exchange proxy and the backend. Missing URLs are reported as
// configuration errors when a call needs them, not at construction.
type Client struct {
	backendURL string
	proxyURL   string
	http       *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

func NewClient(backendURL, tokenProxyURL string, opts ...ClientOption) *Client {
	c := &Client{
		backendURL: strings.TrimSuffix(backendURL, "/"),
		proxyURL:   tokenProxyURL,
		http:       &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ExchangeCode(ctx context.Context, req oauth2.TokenRequest) (*oauth2.TokenResponse, error) {
	if c.proxyURL == "" {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "token proxy url is not configured")
	}
	var resp oauth2.TokenResponse
	if err := c.do(ctx, http.MethodPost, c.proxyURL, req, nil, &resp, apperrors.ErrCodeExchange); err != nil {
		return nil, err
	}
	if resp.IDToken == "" {
		return nil, apperrors.ErrMissingIdentityToken
	}
	return &resp, nil
}

func (c *Client) LookupSalt(ctx context.Context, idToken string, provider oauth2.Provider) (*SaltResult, error) {
	u, err := c.backend(saltPath)
	if err != nil {
		return nil, err
	}
	headers := map[string]string{
		headerOAuthToken:   idToken,
		headerAuthProvider: provider.String(),
	}
	var resp SaltResult
	if err := c.do(ctx, http.MethodGet, u, nil, headers, &resp, apperrors.ErrBackend); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := c.backend(loginPath)
	if err != nil {
		return nil, err
	}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, u, req, nil, &resp, apperrors.ErrBackend); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SendOTP(ctx context.Context, accessToken, phone string) error {
	u, err := c.backend(otpSendPath)
	if err != nil {
		return err
	}
	body := map[string]string{"phone": phone}
	return c.do(ctx, http.MethodPost, u, body, bearer(accessToken), nil, apperrors.ErrBackend)
}

func (c *Client) VerifyOTP(ctx context.Context, accessToken, phone, code string) (*VerifyOTPResponse, error) {
	u, err := c.backend(otpVerifyPath)
	if err != nil {
		return nil, err
	}
	body := map[string]string{"phone": phone, "code": code}
	var resp VerifyOTPResponse
	if err := c.do(ctx, http.MethodPost, u, body, bearer(accessToken), &resp, apperrors.ErrBackend); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) backend(path string) (string, error) {
	if c.backendURL == "" {
		return "", apperrors.Wrapf(apperrors.ErrConfiguration, "backend url is not configured")
	}
	return c.backendURL + path, nil
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// do performs one JSON request. Non-2xx answers become *Error of the given kind.
func (c *Client) do(ctx context.Context, method, url string, in any, headers map[string]string, out any, kind error) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperrors.Wrapf(err, "encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return apperrors.Wrapf(kind, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrapf(kind, "%s", err.Error())
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return apperrors.Wrapf(kind, "read response")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return newError(res.StatusCode, data, kind)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrapf(kind, "decode response")
	}
	return nil
}
