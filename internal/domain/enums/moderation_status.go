package enums

import "strings"

type ModerationStatus string

const (
	ModerationStatusPendingReview ModerationStatus = "pending_review"
	ModerationStatusApproved      ModerationStatus = "approved"
	ModerationStatusRejected      ModerationStatus = "rejected"
)

func ParseModerationStatus(value string) (ModerationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ModerationStatusPendingReview), "pending":
		return ModerationStatusPendingReview, nil
	case string(ModerationStatusApproved):
		return ModerationStatusApproved, nil
	case string(ModerationStatusRejected):
		return ModerationStatusRejected, nil
	default:
		return "", ErrUnknownValue
	}
}

// IsTerminal reports whether no transition may leave the status.
func (s ModerationStatus) IsTerminal() bool {
	return s == ModerationStatusApproved || s == ModerationStatusRejected
}
