package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shop-auth-api/internal/application/user"
	"github.com/shop-auth-api/internal/domain"
	"github.com/shop-auth-api/internal/pkg/validate"
	"github.com/shop-auth-api/internal/transport/http/middleware"
)

// UserHandler handles registration and admin-side user restriction.
type UserHandler struct {
	svc            user.Service
	cookieLifetime time.Duration
}

func NewUserHandler(svc user.Service, cookieLifetime time.Duration) *UserHandler {
	return &UserHandler{svc: svc, cookieLifetime: cookieLifetime}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.Register(r.Context(), req, auditFrom(r))
	if err != nil {
		httpError(w, err)
		return
	}
	middleware.SetTokenCookie(w, result.Bearer, h.cookieLifetime)
	writeJSON(w, http.StatusCreated, AuthEnvelope{Bearer: result.Bearer, Session: result.Session})
}

// Restrict is the admin endpoint applying or lifting a security restriction.
// Restricting also revokes all of the user's sessions.
func (h *UserHandler) Restrict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Restricted *bool `json:"restricted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Restricted == nil {
		writeError(w, http.StatusBadRequest, "restricted required")
		return
	}
	userID := chi.URLParam(r, "id")
	if err := h.svc.Restrict(r.Context(), userID, *req.Restricted); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "updated"})
}
