package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ivankudzin/miraclemap/internal/domain/model"
	"github.com/ivankudzin/miraclemap/internal/services/admission"
)

func TestClassifyMapsTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "validation", err: fmt.Errorf("%w: title too long", model.ErrValidation), status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "not found", err: fmt.Errorf("get: %w", model.ErrSubmissionNotFound), status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "transition", err: model.ErrInvalidStateTransition, status: http.StatusConflict, code: "INVALID_STATE_TRANSITION"},
		{name: "concurrent", err: fmt.Errorf("reject: %w", model.ErrConcurrentModification), status: http.StatusConflict, code: "CONCURRENT_MODIFICATION"},
		{name: "other", err: fmt.Errorf("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		status, payload := Classify(tt.err)
		if status != tt.status || payload.Code != tt.code {
			t.Fatalf("%s: got %d/%s want %d/%s", tt.name, status, payload.Code, tt.status, tt.code)
		}
	}
}

func TestWriteDomainRateLimit(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteDomain(rr, fmt.Errorf("admit: %w", &admission.RateLimitError{RetryAfterSec: 42}))

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("unexpected Retry-After header: %q", got)
	}

	var payload RateLimitError
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != "RATE_LIMITED" || payload.RetryAfterSec != 42 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
