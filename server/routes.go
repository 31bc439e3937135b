package server

import "net/http"

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteHandler("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteConfirmAccount, ChainMiddleware(s.ConfirmAccountHandler(), s.APIMiddleware()...))

	// SESSION
	s.RegisterRouteHandler("GET "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteSession, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// PHONE
	s.RegisterRouteHandler("POST "+RoutePhoneOTP, ChainMiddleware(s.SendPhoneOTPHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RoutePhoneVerify, ChainMiddleware(s.VerifyPhoneOTPHandler(), s.APIMiddleware()...))

	// Code-exchange proxy
	if s.deps.Exchanger != nil {
		s.RegisterRouteHandler("POST "+RouteOAuthToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))
	}

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.CorsMiddleware))

	s.RegisterRouteHandler("GET "+RouteMetrics, s.deps.Metrics.Handler())
	s.RegisterRouteFunc("GET "+RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
