package model

import (
	"time"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
)

type Submission struct {
	ID          string            `json:"id"`
	Kind        enums.ContentKind `json:"content_kind"`
	AuthorID    string            `json:"author_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    enums.Category    `json:"category"`
	Urgency     enums.Urgency     `json:"urgency,omitempty"`
	Latitude    *float64          `json:"latitude,omitempty"`
	Longitude   *float64          `json:"longitude,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ModeratedSubmission pairs a submission with its current moderation state.
type ModeratedSubmission struct {
	Submission Submission      `json:"submission"`
	Moderation ModerationState `json:"moderation"`
}
