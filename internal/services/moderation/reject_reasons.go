package moderation

import (
	"sort"
	"strings"
)

type RejectReasonItem struct {
	ReasonCode      string `json:"reason_code"`
	Label           string `json:"label"`
	ReasonText      string `json:"reason_text"`
	RequiredFixStep string `json:"required_fix_step"`
}

type rejectReasonTemplate struct {
	Label           string
	ReasonText      string
	RequiredFixStep string
}

var rejectReasonTemplates = map[string]rejectReasonTemplate{
	"SPAM": {
		Label:           "Spam",
		ReasonText:      "The post looks like spam or promotional content.",
		RequiredFixStep: "Remove promotional wording and share your own experience.",
	},
	"COMMERCIAL": {
		Label:           "Commercial activity",
		ReasonText:      "The post offers goods, services or investments.",
		RequiredFixStep: "This map is for miracles and prayer requests, not sales.",
	},
	"CONTACT_INFO": {
		Label:           "Contact info / links",
		ReasonText:      "The post contains contact details or external links.",
		RequiredFixStep: "Remove phone numbers, handles and links before resubmitting.",
	},
	"INAPPROPRIATE": {
		Label:           "Inappropriate",
		ReasonText:      "The post contains inappropriate or offensive content.",
		RequiredFixStep: "Rewrite the post respectfully.",
	},
	"DUPLICATE": {
		Label:           "Duplicate",
		ReasonText:      "The same post was already submitted.",
		RequiredFixStep: "Edit your existing post instead of submitting it again.",
	},
	"OFF_TOPIC": {
		Label:           "Off topic",
		ReasonText:      "The post is not a miracle or a prayer request.",
		RequiredFixStep: "Share a personal miracle or a prayer request.",
	},
	"OTHER": {
		Label:           "Other",
		ReasonText:      "The post needs changes before it can be published.",
		RequiredFixStep: "Follow the moderator note and submit again.",
	},
}

func (s *Service) ListRejectReasons() []RejectReasonItem {
	codes := make([]string, 0, len(rejectReasonTemplates))
	for code := range rejectReasonTemplates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	items := make([]RejectReasonItem, 0, len(codes))
	for _, code := range codes {
		template := rejectReasonTemplates[code]
		items = append(items, RejectReasonItem{
			ReasonCode:      code,
			Label:           strings.TrimSpace(template.Label),
			ReasonText:      strings.TrimSpace(template.ReasonText),
			RequiredFixStep: strings.TrimSpace(template.RequiredFixStep),
		})
	}

	return items
}

// resolveReason returns the reason text stored with a rejection. An explicit reason
// wins; otherwise the template text of the code is used.
func resolveReason(reason, reasonCode string) (string, string, error) {
	code := strings.ToUpper(strings.TrimSpace(reasonCode))
	text := strings.TrimSpace(reason)

	if code != "" {
		template, ok := rejectReasonTemplates[code]
		if !ok {
			return "", "", ErrInvalidReasonCode
		}
		if text == "" {
			text = template.ReasonText
		}
	}
	if text == "" {
		return "", "", ErrReasonRequired
	}

	return text, code, nil
}
