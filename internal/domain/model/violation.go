package model

import (
	"time"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
)

type ViolationRecord struct {
	ID             string              `json:"id"`
	SubmissionID   string              `json:"submission_id"`
	Kind           enums.ContentKind   `json:"content_kind"`
	ViolationType  enums.ViolationType `json:"violation_type"`
	FlaggedContent string              `json:"flagged_content"`
	AuthorID       string              `json:"author_id"`
	ActorID        string              `json:"actor_id,omitempty"`
	ReasonCode     string              `json:"reason_code,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

type ViolationStats struct {
	Total           int                         `json:"total"`
	ByViolationType map[enums.ViolationType]int `json:"by_violation_type"`
	ByContentKind   map[enums.ContentKind]int   `json:"by_content_kind"`
	Recent          []ViolationRecord           `json:"recent"`
}
