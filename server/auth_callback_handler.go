package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-zklogin/auth"
)

type callbackResponse struct {
	*auth.CallbackResult
	Session *sessionView `json:"session,omitempty"`
}

// CallbackHandler completes a login from the provider redirect. The query string is used for GET
// and form fields for POST. The outcome is returned as JSON, and a Refresh header moves the
// browser on to the next route.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid callback request")
			return
		}

		store := s.sessionStore(w, r)
		result := s.deps.Auth.HandleCallback(r.Context(), r.Form, store)

		resp := callbackResponse{CallbackResult: result}
		if result.Session != nil {
			resp.Session = newSessionView(result.Session)
		}

		if result.State != auth.StateSuccess {
			writeJSON(w, http.StatusBadRequest, resp)
			return
		}

		switch {
		case result.Handoff != nil:
			setRefresh(w, 0, s.frontendURL(result.NextRoute, url.Values{"nonce": {result.Handoff.Nonce}}))
		case result.NextRoute != "":
			setRefresh(w, result.Delay, s.frontendURL(result.NextRoute, nil))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
