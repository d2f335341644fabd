package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RevocationStore remembers revoked token ids until the token would have expired.
type RevocationStore interface {
	Revoke(ctx context.Context, sid string, until time.Time) error
	IsRevoked(ctx context.Context, sid string) (bool, error)
}

type Service struct {
	jwt     *JWTManager
	revoked RevocationStore
}

func NewService(jwtManager *JWTManager, revoked RevocationStore) *Service {
	return &Service{
		jwt:     jwtManager,
		revoked: revoked,
	}
}

// IssueToken mints a bearer token for a moderator or a trusted author client.
func (s *Service) IssueToken(subject, role string) (string, AccessClaims, error) {
	if s.jwt == nil {
		return "", AccessClaims{}, fmt.Errorf("jwt manager is not configured")
	}
	normalized, err := NormalizeRole(role)
	if err != nil {
		return "", AccessClaims{}, fmt.Errorf("role %q: %w", role, err)
	}
	return s.jwt.GenerateAccessToken(subject, normalized)
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	if s.jwt == nil {
		return AccessClaims{}, fmt.Errorf("jwt manager is not configured")
	}

	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, err
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.SID)
		if err != nil {
			return AccessClaims{}, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return AccessClaims{}, ErrUnauthorized
		}
	}

	return claims, nil
}

// Revoke invalidates every request carrying the token with the given id.
func (s *Service) Revoke(ctx context.Context, sid string, until time.Time) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if s.revoked == nil {
		return fmt.Errorf("revocation store is not configured")
	}
	return s.revoked.Revoke(ctx, sid, until)
}
