package enums

import (
	"errors"
	"strings"
)

var ErrUnknownValue = errors.New("unknown enum value")

// ContentKind distinguishes shared stories from requests for support.
type ContentKind string

const (
	ContentKindPrimary ContentKind = "primary"
	ContentKindRequest ContentKind = "request"
)

func ParseContentKind(value string) (ContentKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ContentKindPrimary), "miracle":
		return ContentKindPrimary, nil
	case string(ContentKindRequest), "prayer_request", "prayer":
		return ContentKindRequest, nil
	default:
		return "", ErrUnknownValue
	}
}

func (k ContentKind) Valid() bool {
	return k == ContentKindPrimary || k == ContentKindRequest
}
