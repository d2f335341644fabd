package auth

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleOwner     = "OWNER"
	RoleModerator = "MODERATOR"
	RoleUser      = "USER"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

type AccessClaims struct {
	Subject   string
	SID       string
	Role      string
	ExpiresAt time.Time
}

// IsModerator reports whether role may approve or reject submissions.
func IsModerator(role string) bool {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case RoleOwner, RoleModerator:
		return true
	default:
		return false
	}
}

func NormalizeRole(role string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(role))
	switch normalized {
	case RoleOwner, RoleModerator, RoleUser:
		return normalized, nil
	default:
		return "", ErrInvalidInput
	}
}
