package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
)

type signupRequest struct {
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	RequiresTwo *bool   `json:"requires2FA"`
}

type loginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type verifySecondFactorRequest struct {
	Email     *string `json:"email"`
	AttemptID *string `json:"loginAttemptId"`
	Code      *string `json:"2FACode"`
}

type verifyTokenRequest struct {
	Token *string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type secondFactorResponse struct {
	Message   string `json:"message"`
	AttemptID string `json:"loginAttemptId"`
}

type identityResponse struct {
	Message  string `json:"message"`
	Identity string `json:"identity"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var errMissingFields = errors.New("missing required fields")

func heartbeatHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, "online")
}

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Email == nil || req.Password == nil || req.RequiresTwo == nil {
		writeError(w, http.StatusUnprocessableEntity, errMissingFields.Error())
		return
	}

	if _, err := s.engine.Register(withRequestContext(r), *req.Email, *req.Password, *req.RequiresTwo); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "user created successfully"})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Email == nil || req.Password == nil {
		writeError(w, http.StatusUnprocessableEntity, errMissingFields.Error())
		return
	}

	res, err := s.engine.Authenticate(withRequestContext(r), *req.Email, *req.Password)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	if res.State == authcore.StateSecondFactorPending {
		writeJSON(w, http.StatusPartialContent, secondFactorResponse{
			Message:   "2FA required",
			AttemptID: res.AttemptID.String(),
		})
		return
	}

	s.setSessionCookie(w, r, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, messageResponse{Message: "login successful"})
}

func (s *Server) verifySecondFactorHandler(w http.ResponseWriter, r *http.Request) {
	var req verifySecondFactorRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Email == nil || req.AttemptID == nil || req.Code == nil {
		writeError(w, http.StatusUnprocessableEntity, errMissingFields.Error())
		return
	}

	res, err := s.engine.ConfirmSecondFactor(withRequestContext(r), *req.Email, *req.AttemptID, *req.Code)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	s.setSessionCookie(w, r, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, messageResponse{Message: "login successful"})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.TokenFromRequest(r, s.opts.CookieName)

	if err := s.engine.Logout(withRequestContext(r), token); err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	s.clearSessionCookie(w, r)
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) verifyTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Token == nil {
		writeError(w, http.StatusUnprocessableEntity, errMissingFields.Error())
		return
	}
	token := strings.TrimSpace(*req.Token)
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}

	who, err := s.engine.VerifyToken(withRequestContext(r), token)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{Message: "token is valid", Identity: who.String()})
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{Message: "authenticated", Identity: who.String()})
}

// ---------------------------------------------------------------------------
// Encoding helpers
// ---------------------------------------------------------------------------

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.log.Debug(r.Context(), "rejecting request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeEngineError maps engine errors to status codes. Backend detail never
// reaches the client; the engine has already logged it.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authcore.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, authcore.ErrMissingToken):
		writeError(w, http.StatusBadRequest, "missing token")
	case errors.Is(err, authcore.ErrAccountExists):
		writeError(w, http.StatusConflict, "user already exists")
	case errors.Is(err, authcore.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "incorrect credentials")
	case errors.Is(err, authcore.ErrInvalidCode), errors.Is(err, authcore.ErrChallengeNotFound):
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
	case errors.Is(err, authcore.ErrExpiredToken):
		writeError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, authcore.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, authcore.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many attempts")
	default:
		s.log.Warn(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// ---------------------------------------------------------------------------
// Cookie helpers
// ---------------------------------------------------------------------------

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
