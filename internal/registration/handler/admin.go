package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"jesa/internal/audit"
	"jesa/internal/registration/models"
	"jesa/pkg/domain"
	dErrors "jesa/pkg/domain-errors"
	"jesa/pkg/platform/httputil"
	"jesa/pkg/requestcontext"
)

const defaultListLimit = 50

type applicantsResponse struct {
	Applicants []*models.BaseApplicant `json:"applicants"`
}

type auditResponse struct {
	Events []audit.Event `json:"events"`
}

func (h *Handler) handleListApplicants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bases, err := h.service.ListApplicants(ctx, limit)
	if err != nil {
		h.logAdminError(r, "failed to list applicants", err)
		httputil.WriteError(w, err)
		return
	}
	if bases == nil {
		bases = []*models.BaseApplicant{}
	}
	httputil.WriteJSON(w, http.StatusOK, applicantsResponse{Applicants: bases})
}

func (h *Handler) handleGetApplicant(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.GetRegistration(r.Context(), id)
	if err != nil {
		h.logAdminError(r, "failed to load applicant", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if h.auditReader == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "audit log not enabled"))
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.auditReader.ListRecent(r.Context(), limit)
	if err != nil {
		h.logAdminError(r, "failed to list audit events", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, auditResponse{Events: events})
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer")
	}
	return limit, nil
}

func (h *Handler) logAdminError(r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
