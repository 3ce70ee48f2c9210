package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shop-auth-api/internal/application/recovery"
	"github.com/shop-auth-api/internal/pkg/validate"
)

// RecoveryHandler drives the unauthenticated forgot-password endpoints.
type RecoveryHandler struct {
	svc recovery.Service
}

func NewRecoveryHandler(svc recovery.Service) *RecoveryHandler {
	return &RecoveryHandler{svc: svc}
}

func (h *RecoveryHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request":
		var req recovery.StartRequest
		if !decodeValid(w, r, &req) {
			return
		}
		if err := h.svc.Start(r.Context(), req); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "code sent"})
	case "validate-code":
		var req recovery.CheckCodeRequest
		if !decodeValid(w, r, &req) {
			return
		}
		if err := h.svc.CheckCode(r.Context(), req); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "code valid"})
	case "change-password":
		var req recovery.CompleteRequest
		if !decodeValid(w, r, &req) {
			return
		}
		if err := h.svc.Complete(r.Context(), req); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated"})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func decodeValid(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}
