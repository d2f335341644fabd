package dto

import (
	"github.com/ivankudzin/miraclemap/internal/domain/model"
	"github.com/ivankudzin/miraclemap/internal/services/contentfilter"
)

type SubmitRequest struct {
	ContentKind string   `json:"content_kind" validate:"required,oneof=primary request miracle prayer_request prayer"`
	AuthorID    string   `json:"author_id" validate:"omitempty,max=128"`
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=1000"`
	Category    string   `json:"category" validate:"omitempty,max=64"`
	Urgency     string   `json:"urgency" validate:"omitempty,oneof=low medium high urgent"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
}

type SubmitResponse struct {
	Submission model.Submission      `json:"submission"`
	Moderation model.ModerationState `json:"moderation"`
	Verdict    contentfilter.Verdict `json:"verdict"`
	Message    string                `json:"message"`
}

type ValidateRequest struct {
	AuthorID    string `json:"author_id" validate:"omitempty,max=128"`
	Title       string `json:"title" validate:"max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type SubmissionListResponse struct {
	Items []model.ModeratedSubmission `json:"items"`
}
