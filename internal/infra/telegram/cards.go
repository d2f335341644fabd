package telegram

import (
	"fmt"
	"strings"

	"github.com/ivankudzin/miraclemap/internal/domain/model"
)

const (
	CallbackPrefix = "mod"

	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionReason  = "reason"

	maxCardDescription = 600
)

// ReviewCard renders a pending submission for moderators.
func ReviewCard(item model.ModeratedSubmission) string {
	sub := item.Submission
	state := item.Moderation

	var b strings.Builder
	fmt.Fprintf(&b, "Review %s [%s/%s]\n", sub.ID, sub.Kind, sub.Category)
	if sub.Urgency != "" {
		fmt.Fprintf(&b, "Urgency: %s\n", sub.Urgency)
	}
	fmt.Fprintf(&b, "Author: %s\n", sub.AuthorID)
	fmt.Fprintf(&b, "Confidence: %d\n", state.Confidence)
	if len(state.FlaggedTerms) > 0 {
		fmt.Fprintf(&b, "Flagged: %s\n", strings.Join(state.FlaggedTerms, ", "))
	}
	b.WriteString("\n")
	b.WriteString(sub.Title)
	b.WriteString("\n")
	b.WriteString(truncate(sub.Description, maxCardDescription))
	return b.String()
}

// DecisionRows builds the approve/reject keyboard for a submission.
func DecisionRows(submissionID string) [][]InlineButton {
	return [][]InlineButton{{
		{Text: "Approve", Data: CallbackData(ActionApprove, submissionID)},
		{Text: "Reject", Data: CallbackData(ActionReject, submissionID)},
	}}
}

func CallbackData(action string, parts ...string) string {
	return strings.Join(append([]string{CallbackPrefix, action}, parts...), ":")
}

// ParseCallbackData splits "mod:<action>:<args...>". ok is false for foreign
// prefixes and malformed payloads.
func ParseCallbackData(data string) (action string, args []string, ok bool) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	if len(parts) < 3 || parts[0] != CallbackPrefix || parts[1] == "" {
		return "", nil, false
	}
	for _, part := range parts[2:] {
		if strings.TrimSpace(part) == "" {
			return "", nil, false
		}
	}
	return parts[1], parts[2:], true
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
