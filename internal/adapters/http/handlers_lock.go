package http

import (
	"net/http"

	"github.com/docukeep/session-guard/internal/application"
)

func (h *Handler) lockStatus(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "lock_status")
		return
	}
	res, err := h.service.LockStatus(r.Context(), token)
	if err != nil {
		writeMappedError(r.Context(), w, "lock_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) enableLock(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "enable_lock")
		return
	}
	var req application.EnableLockRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "enable_lock", err)
		return
	}
	if err := h.service.EnableLock(r.Context(), token, req); err != nil {
		writeMappedError(r.Context(), w, "enable_lock", err)
		return
	}
	writeMessage(w, http.StatusOK, "Profile lock enabled")
}

func (h *Handler) disableLock(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "disable_lock")
		return
	}
	var req application.DisableLockRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "disable_lock", err)
		return
	}
	if err := h.service.DisableLock(r.Context(), token, req); err != nil {
		writeMappedError(r.Context(), w, "disable_lock", err)
		return
	}
	writeMessage(w, http.StatusOK, "Profile lock disabled")
}

func (h *Handler) attemptHistory(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "attempt_history")
		return
	}

	query := application.AttemptHistoryQuery{
		Page:  parseIntDefault(r.URL.Query().Get("page"), 1),
		Limit: parseIntDefault(r.URL.Query().Get("limit"), 20),
		Days:  parseIntDefault(r.URL.Query().Get("days"), 0),
	}
	items, err := h.service.AttemptHistory(r.Context(), token, query)
	if err != nil {
		writeMappedError(r.Context(), w, "attempt_history", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"attempts": items})
}

func (h *Handler) reverifyComplete(w http.ResponseWriter, r *http.Request) {
	var req application.ReverifyCompleteRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "reverify_complete", err)
		return
	}
	res, err := h.service.CompleteReverification(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "reverify_complete", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
