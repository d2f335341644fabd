package apiapp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ivankudzin/miraclemap/internal/config"
	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/infra/metrics"
	"github.com/ivankudzin/miraclemap/internal/repo/memory"
	"github.com/ivankudzin/miraclemap/internal/services/admission"
	authsvc "github.com/ivankudzin/miraclemap/internal/services/auth"
	"github.com/ivankudzin/miraclemap/internal/services/contentfilter"
	modsvc "github.com/ivankudzin/miraclemap/internal/services/moderation"
	violationsvc "github.com/ivankudzin/miraclemap/internal/services/violations"
	"github.com/ivankudzin/miraclemap/internal/transport/http/dto"
	"github.com/ivankudzin/miraclemap/internal/transport/http/handlers"
)

func newTestRouter(t *testing.T) (http.Handler, *authsvc.Service) {
	t.Helper()
	store := memory.NewStore()
	m := metrics.New()
	authService := newTestAuthService()
	router := NewRouter(Dependencies{
		Pipeline:          admission.NewPipeline(contentfilter.NewClassifier(nil), store, admission.Config{}, nil).WithMetrics(m),
		ModerationService: modsvc.NewService(store, nil, m, nil),
		ViolationService:  violationsvc.NewService(store, m, 0),
		AuthService:       authService,
		Published:         store,
		Metrics:           m,
		LexiconVersion:    contentfilter.DefaultLexicon().Version(),
		Components:        map[string]string{"postgres": "memory"},
		Logger:            zap.NewNop(),
	})
	return router, authService
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthReportsDegradedComponents(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var health handlers.HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "degraded" || health.Components["postgres"] != "memory" || health.LexiconVersion == "" {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func TestAdminRoutesRequireModeratorRole(t *testing.T) {
	router, authService := newTestRouter(t)

	if rr := doJSON(t, router, http.MethodGet, "/admin/moderation/pending", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: got %d want %d", rr.Code, http.StatusUnauthorized)
	}

	userToken, _, err := authService.IssueToken("user-1", authsvc.RoleUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if rr := doJSON(t, router, http.MethodGet, "/admin/moderation/pending", userToken, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("user role: got %d want %d", rr.Code, http.StatusForbidden)
	}
}

func TestSubmitReviewRejectFlowThroughRouter(t *testing.T) {
	router, authService := newTestRouter(t)
	modToken, _, err := authService.IssueToken("mod-1", authsvc.RoleModerator)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rr := doJSON(t, router, http.MethodPost, "/v1/submissions", "", dto.SubmitRequest{
		ContentKind: "request",
		AuthorID:    "author-1",
		Title:       "Deal",
		Description: "Check out this AMAZING deal, buy now at http://x.co",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("submit: got %d body=%s", rr.Code, rr.Body.String())
	}
	var submitted dto.SubmitResponse
	if err := json.NewDecoder(rr.Body).Decode(&submitted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := submitted.Submission.ID

	rr = doJSON(t, router, http.MethodGet, "/v1/submissions/"+id+"/moderation", "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), string(enums.ModerationStatusPendingReview)) {
		t.Fatalf("moderation state: got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodPost, "/admin/moderation/"+id+"/reject", modToken, dto.RejectRequest{ReasonCode: "SPAM"})
	if rr.Code != http.StatusOK {
		t.Fatalf("reject: got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodPost, "/admin/moderation/"+id+"/approve", modToken, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("approve after reject: got %d want %d", rr.Code, http.StatusConflict)
	}

	rr = doJSON(t, router, http.MethodGet, "/admin/violations/stats", modToken, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"total":1`) {
		t.Fatalf("stats: got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "miraclemap_") {
		t.Fatalf("metrics: got %d", rr.Code)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/nope", "", nil)
	if rr.Code != http.StatusNotFound || !strings.Contains(rr.Body.String(), `"NOT_FOUND"`) {
		t.Fatalf("unexpected response: %d %s", rr.Code, rr.Body.String())
	}
}

func TestRateRulesFromConfig(t *testing.T) {
	rules := RateRules(configLimits(3, 20, 60))
	if len(rules["submit"]) != 2 || rules["submit"][1].Limit != 20 || len(rules["preview"]) != 1 {
		t.Fatalf("unexpected rules: %+v", rules)
	}
}

func TestLoadLexiconFallsBackToDefault(t *testing.T) {
	lexicon, err := LoadLexicon("")
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if lexicon.Version() != contentfilter.DefaultLexicon().Version() {
		t.Fatalf("unexpected version: %s", lexicon.Version())
	}
	if _, err := LoadLexicon("/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for missing override file")
	}
}

func configLimits(perMinute, perHour, previewPerMinute int) config.LimitsConfig {
	return config.LimitsConfig{
		SubmitPerMinute:  perMinute,
		SubmitPerHour:    perHour,
		PreviewPerMinute: previewPerMinute,
	}
}
