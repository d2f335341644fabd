package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/miraclemap/internal/services/auth"
)

func TestRequireRoleAllowsCaseInsensitiveMatch(t *testing.T) {
	mw := RequireRole("OWNER", "MODERATOR")

	req := httptest.NewRequest(http.MethodGet, "/admin/moderation/pending", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		Subject: "mod-1",
		SID:     "sid-1",
		Role:    "moderator",
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestRequireRoleRejectsForbiddenRole(t *testing.T) {
	mw := RequireRole("OWNER", "MODERATOR")

	req := httptest.NewRequest(http.MethodGet, "/admin/moderation/pending", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		Subject: "user-2",
		SID:     "sid-2",
		Role:    "user",
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called for forbidden role")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	mw := AuthMiddleware(newTestAuthService(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/admin/violations", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called without token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	authService := newTestAuthService()
	token, claims, err := authService.IssueToken("mod-7", "moderator")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/violations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	AuthMiddleware(authService, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("identity missing in context")
		}
		if identity.Subject != "mod-7" || identity.Role != authsvc.RoleModerator || identity.SID != claims.SID {
			t.Fatalf("unexpected identity: %+v", identity)
		}
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	mw := OptionalAuthMiddleware(newTestAuthService(), zap.NewNop())

	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := authsvc.IdentityFromContext(r.Context()); ok {
			t.Fatalf("anonymous request must not carry identity")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/submissions", nil))
	if !called || rr.Code != http.StatusNoContent {
		t.Fatalf("anonymous request should pass, status=%d", rr.Code)
	}

	called = false
	req := httptest.NewRequest(http.MethodPost, "/v1/submissions", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)
	if called || rr.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token should be rejected, status=%d", rr.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	if token, ok := extractBearerToken("bearer  abc "); !ok || token != "abc" {
		t.Fatalf("unexpected token: %q %v", token, ok)
	}
	for _, bad := range []string{"", "Bearer", "Basic abc", "Bearer   "} {
		if _, ok := extractBearerToken(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func newTestAuthService() *authsvc.Service {
	return authsvc.NewService(authsvc.NewJWTManager("test-secret", time.Hour), nil)
}
