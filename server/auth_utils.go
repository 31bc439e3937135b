package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-zklogin/api"
	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/sessions"
	"github.com/rs/zerolog/log"
)

// profileCookieName identifies the browser profile a session belongs to.
const profileCookieName = "zk_profile"

// profileID returns the browser profile of the request, issuing a new one when the request has
// none or carries an invalid value.
func (s *Server) profileID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(profileCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	s.SetProfileCookie(w, id, r)
	return id
}

func (s *Server) SetProfileCookie(w http.ResponseWriter, profileID string, r *http.Request) {
	isSecure := getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     profileCookieName,
		Value:    profileID,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetProfileCookieMaxAge().Seconds()),
	})
}

func (s *Server) sessionStore(w http.ResponseWriter, r *http.Request) *sessions.SessionStore {
	return sessions.NewSessionStore(s.deps.Sessions, s.profileID(w, r))
}

// frontendURL resolves an application route against the frontend base URL.
func (s *Server) frontendURL(route string, query url.Values) string {
	u := s.config.GetFrontendBaseURL() + route
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// setRefresh asks the browser to navigate to target after delay.
func setRefresh(w http.ResponseWriter, delay time.Duration, target string) {
	seconds := strconv.FormatFloat(delay.Seconds(), 'f', -1, 64)
	w.Header().Set("Refresh", seconds+"; url="+target)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a flow error to a status code and a message safe to show.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var apiErr *api.Error
	switch {
	case apperrors.As(err, &apiErr):
		status = http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		msg = apiErr.Message
	case apperrors.Is(err, apperrors.ErrNoSession):
		status, msg = http.StatusUnauthorized, err.Error()
	case apperrors.Is(err, apperrors.ErrNoPendingLogin):
		status, msg = http.StatusNotFound, err.Error()
	case apperrors.Is(err, apperrors.ErrInvalidInput),
		apperrors.Is(err, apperrors.ErrMissingCallbackParams),
		apperrors.Is(err, apperrors.ErrUnsupportedProvider),
		apperrors.Is(err, apperrors.ErrMissingIdentityToken),
		apperrors.Is(err, apperrors.ErrInvalidClaims),
		apperrors.Is(err, apperrors.ErrInvalidSalt):
		status, msg = http.StatusBadRequest, err.Error()
	case apperrors.Is(err, apperrors.ErrSessionInvalid):
		status, msg = http.StatusConflict, err.Error()
	case apperrors.Is(err, apperrors.ErrCodeExchange), apperrors.Is(err, apperrors.ErrBackend):
		status, msg = http.StatusBadGateway, err.Error()
	case apperrors.Is(err, apperrors.ErrConfiguration):
		msg = "service is not configured"
	}

	if status >= http.StatusInternalServerError {
		logError(r.Method, r.URL.Path, err.Error())
	}
	writeError(w, status, msg)
}
