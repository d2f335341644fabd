package dto

import (
	"github.com/ivankudzin/miraclemap/internal/domain/model"
	modsvc "github.com/ivankudzin/miraclemap/internal/services/moderation"
)

type RejectRequest struct {
	ReasonCode string `json:"reason_code" validate:"omitempty,max=32"`
	Reason     string `json:"reason" validate:"omitempty,max=1000"`
}

type RejectResponse struct {
	Moderation model.ModerationState `json:"moderation"`
	Violation  model.ViolationRecord `json:"violation"`
}

type ApproveResponse struct {
	Moderation model.ModerationState `json:"moderation"`
}

type RejectReasonsResponse struct {
	Items []modsvc.RejectReasonItem `json:"items"`
}

type ViolationListResponse struct {
	Items      []model.ViolationRecord `json:"items"`
	NextOffset *int                    `json:"next_offset,omitempty"`
}
