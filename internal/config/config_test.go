package config_test

import (
	"testing"

	"github.com/jrsteele09/go-zklogin/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("FRONTEND_BASE_URL", "")
	t.Setenv("OAUTH_REDIRECT_URI", "")
	t.Setenv("OAUTH_TOKEN_PROXY_URL", "")
	t.Setenv("AGENT_BE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("OAUTH_REDIRECT_PATH", "")
	t.Setenv("OAUTH_VERIFY_ID_TOKEN", "")

	c := config.New()
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "http://localhost:8080", c.GetFrontendBaseURL())
	require.Equal(t, "http://localhost:8080/auth/callback", c.GetRedirectURI())
	require.Equal(t, "http://localhost:8080/api/oauth/token", c.GetTokenProxyURL())
	require.Empty(t, c.GetBackendBaseURL())
	require.False(t, c.GetVerifyIDTokens())
}

func TestOverrides(t *testing.T) {
	t.Setenv("FRONTEND_BASE_URL", "https://tanda.example/")
	t.Setenv("OAUTH_REDIRECT_PATH", "/login/done")
	t.Setenv("OAUTH_REDIRECT_URI", "")
	t.Setenv("GOOGLE_CLIENT_ID", "gid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "gsecret")
	t.Setenv("FACEBOOK_CLIENT_ID", "")
	t.Setenv("OAUTH_VERIFY_ID_TOKEN", "TRUE")
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example, ")

	c := config.New()
	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "https://tanda.example/login/done", c.GetRedirectURI())
	require.Equal(t, "gid", c.GetClientID("google"))
	require.Equal(t, "gsecret", c.GetClientSecret("google"))
	require.Empty(t, c.GetClientID("facebook"))
	require.True(t, c.GetVerifyIDTokens())

	origins := c.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://tanda.example"))
	require.True(t, origins.IsAllowedOrigin("https://admin.example"))
	require.False(t, origins.IsAllowedOrigin("https://evil.example"))

	t.Setenv("OAUTH_REDIRECT_URI", "https://tanda.example/cb")
	require.Equal(t, "https://tanda.example/cb", c.GetRedirectURI())
}
