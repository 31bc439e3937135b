package server

import (
	"net/http"

	"github.com/jrsteele09/go-zklogin/oauth2"
	"github.com/rs/zerolog/log"
)

// TokenHandler is the code-exchange proxy. It keeps client secrets on the server and answers
// every failure with HTTP 400 and an error message.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauth2.TokenRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, oauth2.TokenResponse{Error: "invalid request body"})
			return
		}

		resp, err := s.deps.Exchanger.Exchange(r.Context(), req)
		s.deps.Metrics.IncrementTokenExchange(req.Provider.String(), err == nil)
		if err != nil {
			log.Warn().Err(err).Str("provider", req.Provider.String()).Msg("token exchange rejected")
			writeJSON(w, http.StatusBadRequest, oauth2.TokenResponse{Error: err.Error(), Provider: req.Provider})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
