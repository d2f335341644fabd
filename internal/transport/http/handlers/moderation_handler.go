package handlers

import (
	"net/http"
	"strings"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
	authsvc "github.com/ivankudzin/miraclemap/internal/services/auth"
	modsvc "github.com/ivankudzin/miraclemap/internal/services/moderation"
	"github.com/ivankudzin/miraclemap/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/miraclemap/internal/transport/http/errors"
)

type ModerationHandler struct {
	service *modsvc.Service
}

func NewModerationHandler(service *modsvc.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

func (h *ModerationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var kind enums.ContentKind
	if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
		parsed, err := enums.ParseContentKind(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "unknown kind")
			return
		}
		kind = parsed
	}

	items, err := h.service.ListPending(r.Context(), kind, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	if items == nil {
		items = []model.ModeratedSubmission{}
	}

	httperrors.Write(w, http.StatusOK, dto.SubmissionListResponse{Items: items})
}

func (h *ModerationHandler) RejectReasons(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RejectReasonsResponse{Items: h.service.ListRejectReasons()})
}

func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}
	id, ok := submissionID(w, r)
	if !ok {
		return
	}

	state, err := h.service.Approve(r.Context(), id, identity.Subject)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ApproveResponse{Moderation: state})
}

func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}
	id, ok := submissionID(w, r)
	if !ok {
		return
	}

	var req dto.RejectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	state, violation, err := h.service.Reject(r.Context(), id, modsvc.RejectRequest{
		Reason:     req.Reason,
		ReasonCode: req.ReasonCode,
		ActorID:    identity.Subject,
	})
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RejectResponse{Moderation: state, Violation: violation})
}
