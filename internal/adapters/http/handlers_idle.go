package http

import (
	"net/http"

	"github.com/docukeep/session-guard/internal/application"
)

func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "record_activity")
		return
	}

	var req application.HeartbeatRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeValidationError(r.Context(), w, "record_activity", err)
			return
		}
	}

	res, err := h.service.Heartbeat(r.Context(), token, req)
	if err != nil {
		writeMappedError(r.Context(), w, "record_activity", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) idleState(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "idle_state")
		return
	}
	res, err := h.service.IdleState(r.Context(), token)
	if err != nil {
		writeMappedError(r.Context(), w, "idle_state", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) stillHere(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "still_here")
		return
	}
	res, err := h.service.StillHere(r.Context(), token)
	if err != nil {
		writeMappedError(r.Context(), w, "still_here", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "logout")
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		writeMappedError(r.Context(), w, "logout", err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}
