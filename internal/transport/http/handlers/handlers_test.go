package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/miraclemap/internal/repo/memory"
	"github.com/ivankudzin/miraclemap/internal/services/admission"
	authsvc "github.com/ivankudzin/miraclemap/internal/services/auth"
	"github.com/ivankudzin/miraclemap/internal/services/contentfilter"
	modsvc "github.com/ivankudzin/miraclemap/internal/services/moderation"
	violationsvc "github.com/ivankudzin/miraclemap/internal/services/violations"
)

type testEnv struct {
	store       *memory.Store
	submissions *SubmissionHandler
	moderation  *ModerationHandler
	violations  *ViolationsHandler
}

func newTestEnv() testEnv {
	store := memory.NewStore()
	pipeline := admission.NewPipeline(contentfilter.NewClassifier(nil), store, admission.Config{}, nil)
	moderation := modsvc.NewService(store, nil, nil, nil)
	return testEnv{
		store:       store,
		submissions: NewSubmissionHandler(pipeline, moderation, store),
		moderation:  NewModerationHandler(moderation),
		violations:  NewViolationsHandler(violationsvc.NewService(store, nil, 0)),
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withModerator(req *http.Request, subject string) *http.Request {
	ctx := authsvc.WithIdentity(req.Context(), authsvc.Identity{Subject: subject, SID: "sid-1", Role: authsvc.RoleModerator})
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
