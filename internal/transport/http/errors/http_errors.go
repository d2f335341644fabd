package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/ivankudzin/miraclemap/internal/domain/model"
	"github.com/ivankudzin/miraclemap/internal/services/admission"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteDomain maps a service error onto the JSON envelope and status code.
func WriteDomain(w http.ResponseWriter, err error) {
	var rateErr *admission.RateLimitError
	if stderrors.As(err, &rateErr) {
		if rateErr.RetryAfterSec > 0 {
			w.Header().Set("Retry-After", strconv.FormatInt(rateErr.RetryAfterSec, 10))
		}
		Write(w, http.StatusTooManyRequests, RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "too many requests",
			RetryAfterSec: rateErr.RetryAfterSec,
		})
		return
	}

	status, payload := Classify(err)
	Write(w, status, payload)
}

// Classify returns the status and envelope for err. Validation messages are
// passed through; anything unrecognised is reported as an internal error.
func Classify(err error) (int, APIError) {
	switch {
	case err == nil:
		return http.StatusOK, APIError{}
	case stderrors.Is(err, admission.ErrRateLimited):
		return http.StatusTooManyRequests, APIError{Code: "RATE_LIMITED", Message: "too many requests"}
	case stderrors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	case stderrors.Is(err, model.ErrSubmissionNotFound):
		return http.StatusNotFound, APIError{Code: "NOT_FOUND", Message: "submission not found"}
	case stderrors.Is(err, model.ErrInvalidStateTransition):
		return http.StatusConflict, APIError{Code: "INVALID_STATE_TRANSITION", Message: err.Error()}
	case stderrors.Is(err, model.ErrConcurrentModification):
		return http.StatusConflict, APIError{Code: "CONCURRENT_MODIFICATION", Message: "submission was modified concurrently, reload and retry"}
	default:
		return http.StatusInternalServerError, APIError{Code: "INTERNAL_ERROR", Message: "internal server error"}
	}
}
