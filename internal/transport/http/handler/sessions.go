package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shop-auth-api/internal/application/session"
	"github.com/shop-auth-api/internal/pkg/validate"
	"github.com/shop-auth-api/internal/transport/http/middleware"
)

// SessionHandler handles login/logout/current for one principal partition.
// Instantiated twice: once over the user service, once over the admin service.
type SessionHandler struct {
	svc            session.Service
	cookieLifetime time.Duration
}

func NewSessionHandler(svc session.Service, cookieLifetime time.Duration) *SessionHandler {
	return &SessionHandler{svc: svc, cookieLifetime: cookieLifetime}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.Login(r.Context(), req, auditFrom(r))
	if err != nil {
		httpError(w, err)
		return
	}
	middleware.SetTokenCookie(w, result.Bearer, h.cookieLifetime)
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: result.Bearer, Session: result.Session})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Logout(r.Context(), id.Session.SessionID); err != nil {
		httpError(w, err)
		return
	}
	middleware.ClearTokenCookie(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

// Current is "who am I": returns the attached principal's public fields.
// Any read failure clears the client token before the error surfaces.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sess, err := h.svc.Current(r.Context(), id.Session.SessionID)
	if err != nil {
		middleware.ClearTokenCookie(w)
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{Session: sess})
}

// auditFrom captures the informational device/ip annotation for session rows.
func auditFrom(r *http.Request) session.Audit {
	return session.Audit{
		Device: r.UserAgent(),
		IP:     r.RemoteAddr,
	}
}
