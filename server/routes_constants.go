package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - zkLogin
	RouteAuthLogin      = "/auth/login/{provider}"
	RouteCallback       = "/auth/callback"
	RouteConfirmAccount = "/auth/confirm-account"
	RouteSession        = "/auth/session"

	// Auth Routes - Phone verification
	RoutePhoneOTP    = "/auth/phone/otp"
	RoutePhoneVerify = "/auth/phone/verify"

	// Code-exchange proxy
	RouteOAuthToken = "/api/oauth/token"

	// Operations
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)
