package handlers

import (
	"net/http"

	"github.com/ivankudzin/miraclemap/internal/domain/model"
	authsvc "github.com/ivankudzin/miraclemap/internal/services/auth"
	violationsvc "github.com/ivankudzin/miraclemap/internal/services/violations"
	"github.com/ivankudzin/miraclemap/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/miraclemap/internal/transport/http/errors"
)

type ViolationsHandler struct {
	service *violationsvc.Service
}

func NewViolationsHandler(service *violationsvc.Service) *ViolationsHandler {
	return &ViolationsHandler{service: service}
}

func (h *ViolationsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)
	offset := parseIntOrDefault(r.URL.Query().Get("offset"), 0)
	items, err := h.service.Recent(r.Context(), limit, offset)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	if items == nil {
		items = []model.ViolationRecord{}
	}
	resp := dto.ViolationListResponse{Items: items}
	if limit > 0 && len(items) == limit {
		next := offset + len(items)
		resp.NextOffset = &next
	}
	httperrors.Write(w, http.StatusOK, resp)
}

// Stats aggregates the most recent window of violations; ?window= overrides the
// configured size.
func (h *ViolationsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	stats, err := h.service.Stats(r.Context(), parseIntOrDefault(r.URL.Query().Get("window"), 0))
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, stats)
}

func (h *ViolationsHandler) ByAuthor(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	authorID, ok := pathParam(r, "author_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid author id")
		return
	}

	items, err := h.service.ByAuthor(r.Context(), authorID, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	writeViolations(w, items)
}

func (h *ViolationsHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return false
	}
	if h.service == nil {
		writeInternal(w, "VIOLATIONS_SERVICE_UNAVAILABLE", "violations service is unavailable")
		return false
	}
	return true
}

func writeViolations(w http.ResponseWriter, items []model.ViolationRecord) {
	if items == nil {
		items = []model.ViolationRecord{}
	}
	httperrors.Write(w, http.StatusOK, dto.ViolationListResponse{Items: items})
}
