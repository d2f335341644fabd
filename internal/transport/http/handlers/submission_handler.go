package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
	"github.com/ivankudzin/miraclemap/internal/services/admission"
	authsvc "github.com/ivankudzin/miraclemap/internal/services/auth"
	modsvc "github.com/ivankudzin/miraclemap/internal/services/moderation"
	"github.com/ivankudzin/miraclemap/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/miraclemap/internal/transport/http/errors"
)

const (
	messagePublished     = "Your submission has been published"
	messagePendingReview = "Your content will be reviewed before being published"

	defaultPublishedLimit = 50
	maxPublishedLimit     = 200
)

// PublishedLister returns approved submissions, newest first.
type PublishedLister interface {
	ListPublished(ctx context.Context, kind enums.ContentKind, limit int) ([]model.ModeratedSubmission, error)
}

type SubmissionHandler struct {
	pipeline   *admission.Pipeline
	moderation *modsvc.Service
	published  PublishedLister
}

func NewSubmissionHandler(pipeline *admission.Pipeline, moderation *modsvc.Service, published PublishedLister) *SubmissionHandler {
	return &SubmissionHandler{
		pipeline:   pipeline,
		moderation: moderation,
		published:  published,
	}
}

func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.pipeline == nil {
		writeInternal(w, "ADMISSION_UNAVAILABLE", "admission pipeline is unavailable")
		return
	}

	var req dto.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		req.AuthorID = identity.Subject
	}
	if err := dto.Validate(req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	kind, err := enums.ParseContentKind(req.ContentKind)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "unknown content_kind")
		return
	}

	result, err := h.pipeline.Admit(r.Context(), model.Submission{
		Kind:        kind,
		AuthorID:    req.AuthorID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    enums.Category(req.Category),
		Urgency:     enums.Urgency(req.Urgency),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	message := messagePublished
	if result.State.Status == enums.ModerationStatusPendingReview {
		message = messagePendingReview
	}

	httperrors.Write(w, http.StatusCreated, dto.SubmitResponse{
		Submission: result.Submission,
		Moderation: result.State,
		Verdict:    result.Verdict,
		Message:    message,
	})
}

// Validate scores draft text without persisting it.
func (h *SubmissionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.pipeline == nil {
		writeInternal(w, "ADMISSION_UNAVAILABLE", "admission pipeline is unavailable")
		return
	}

	var req dto.ValidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		req.AuthorID = identity.Subject
	}
	if err := dto.Validate(req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	verdict, err := h.pipeline.Preview(r.Context(), req.AuthorID, req.Title, req.Description)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, verdict)
}

// Quota tells a live-validation client how long the author must wait before
// submitting or previewing again. It never counts an action.
func (h *SubmissionHandler) Quota(w http.ResponseWriter, r *http.Request) {
	if h.pipeline == nil {
		writeInternal(w, "ADMISSION_UNAVAILABLE", "admission pipeline is unavailable")
		return
	}

	authorID := r.URL.Query().Get("author_id")
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		authorID = identity.Subject
	}

	quota, err := h.pipeline.Quota(r.Context(), authorID)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, quota)
}

func (h *SubmissionHandler) Moderation(w http.ResponseWriter, r *http.Request) {
	if h.moderation == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}
	id, ok := submissionID(w, r)
	if !ok {
		return
	}

	item, err := h.moderation.Get(r.Context(), id)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, item.Moderation)
}

func (h *SubmissionHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	if h.published == nil {
		writeInternal(w, "SUBMISSIONS_UNAVAILABLE", "submission store is unavailable")
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

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), defaultPublishedLimit)
	if limit <= 0 {
		limit = defaultPublishedLimit
	}
	if limit > maxPublishedLimit {
		limit = maxPublishedLimit
	}

	items, err := h.published.ListPublished(r.Context(), kind, limit)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	if items == nil {
		items = []model.ModeratedSubmission{}
	}

	httperrors.Write(w, http.StatusOK, dto.SubmissionListResponse{Items: items})
}
