package model

import (
	"time"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
)

// SystemActor decides automatic approvals at admission time.
const SystemActor = "system"

type ModerationState struct {
	SubmissionID    string                 `json:"submission_id"`
	Status          enums.ModerationStatus `json:"status"`
	RequiresReview  bool                   `json:"requires_review"`
	DecidedBy       string                 `json:"decided_by,omitempty"`
	DecidedAt       *time.Time             `json:"decided_at,omitempty"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	Confidence      int                    `json:"confidence"`
	FlaggedTerms    []string               `json:"flagged_terms,omitempty"`
	Suggestions     []string               `json:"suggestions,omitempty"`
	UpdatedAt       time.Time              `json:"updated_at"`
}
