package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/application"
)

func (h *Handler) enterRoute(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "enter_route")
		return
	}
	routeID := chi.URLParam(r, "route_id")

	res, err := h.service.EnterRoute(r.Context(), token, routeID)
	if err != nil {
		writeMappedError(r.Context(), w, "enter_route", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) guardVisit(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "guard_visit")
		return
	}
	visitID, err := uuid.Parse(chi.URLParam(r, "visit_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "guard_visit", errors.New("invalid visit_id"))
		return
	}

	res, err := h.service.GuardVisit(r.Context(), token, visitID)
	if err != nil {
		writeMappedError(r.Context(), w, "guard_visit", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) submitPasscode(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "submit_passcode")
		return
	}
	visitID, err := uuid.Parse(chi.URLParam(r, "visit_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "submit_passcode", errors.New("invalid visit_id"))
		return
	}

	var req application.PasscodeSubmitRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "submit_passcode", err)
		return
	}
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()

	res, err := h.service.SubmitPasscode(r.Context(), token, visitID, req)
	if err != nil {
		status, code, msg := mapDomainError(err)
		logHTTPOperationError(r.Context(), "submit_passcode", status, code, msg, err)
		// Rejections still carry challenge state so the client can render
		// the remaining-attempts counter.
		writeJSON(w, status, map[string]any{
			"status":  "error",
			"code":    code,
			"message": msg,
			"data":    res,
		})
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) leaveVisit(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "leave_visit")
		return
	}
	visitID, err := uuid.Parse(chi.URLParam(r, "visit_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "leave_visit", errors.New("invalid visit_id"))
		return
	}

	if err := h.service.LeaveVisit(r.Context(), token, visitID); err != nil {
		writeMappedError(r.Context(), w, "leave_visit", err)
		return
	}
	writeMessage(w, http.StatusOK, "Visit closed")
}
