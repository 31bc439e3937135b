package server

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/oauth2"
	"github.com/jrsteele09/go-zklogin/sessions"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	maxRequestBody  = 64 << 10
)

// sessionView is the part of a session the browser may see. Key material, the salt and the
// identity token stay on the server.
type sessionView struct {
	Provider      oauth2.Provider     `json:"provider"`
	Address       string              `json:"address"`
	MaxEpoch      string              `json:"maxEpoch"`
	Iss           string              `json:"iss"`
	Sub           string              `json:"sub"`
	Aud           string              `json:"aud"`
	Exp           int64               `json:"exp"`
	IsNewUser     bool                `json:"isNewUser"`
	PhoneVerified bool                `json:"phoneVerified"`
	UserID        string              `json:"userId,omitempty"`
	Status        sessions.UserStatus `json:"status,omitempty"`
}

func newSessionView(sess *sessions.Session) *sessionView {
	return &sessionView{
		Provider:      sess.Provider,
		Address:       sess.Address,
		MaxEpoch:      sess.MaxEpoch,
		Iss:           sess.Iss,
		Sub:           sess.Sub,
		Aud:           sess.Aud,
		Exp:           sess.Exp,
		IsNewUser:     sess.IsNewUser,
		PhoneVerified: sess.PhoneVerified,
		UserID:        sess.UserID,
		Status:        sess.Status,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "invalid request body")
	}
	return nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// LoginHandler starts a zkLogin attempt and redirects to the provider. Clients asking for JSON
// receive the authorization URL instead.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := oauth2.ParseProvider(r.PathValue("provider"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		req, err := s.deps.Auth.BuildZkLoginRequest(r.Context(), provider, s.sessionStore(w, r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, req)
			return
		}
		http.Redirect(w, r, req.AuthURL, http.StatusFound)
	}
}

type confirmAccountRequest struct {
	Nonce string `json:"nonce"`
	Alias string `json:"alias,omitempty"`
}

func (s *Server) ConfirmAccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body confirmAccountRequest
		if err := decodeBody(w, r, &body); err != nil {
			writeServiceError(w, r, err)
			return
		}
		if body.Nonce == "" {
			writeError(w, http.StatusBadRequest, "nonce is required")
			return
		}

		sess, err := s.deps.Auth.ConfirmAccount(r.Context(), body.Nonce, body.Alias, s.sessionStore(w, r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionView(sess))
	}
}

func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.deps.Auth.Session(r.Context(), s.sessionStore(w, r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionView(sess))
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.deps.Auth.Logout(r.Context(), s.sessionStore(w, r)); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type phoneRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) SendPhoneOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body phoneRequest
		if err := decodeBody(w, r, &body); err != nil {
			writeServiceError(w, r, err)
			return
		}
		if err := s.deps.Auth.SendPhoneOTP(r.Context(), s.sessionStore(w, r), body.Phone); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) VerifyPhoneOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body phoneRequest
		if err := decodeBody(w, r, &body); err != nil {
			writeServiceError(w, r, err)
			return
		}
		sess, err := s.deps.Auth.VerifyPhoneOTP(r.Context(), s.sessionStore(w, r), body.Phone, body.Code)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionView(sess))
	}
}
