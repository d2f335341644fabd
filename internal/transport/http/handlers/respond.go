package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ivankudzin/miraclemap/internal/domain/model"
	httperrors "github.com/ivankudzin/miraclemap/internal/transport/http/errors"
)

const maxBodyBytes = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func parseIntOrDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func pathParam(r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	return v, v != ""
}

// submissionID reads {id} and answers 404 for anything that is not a UUID, so
// every store reports malformed ids the same way.
func submissionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := pathParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid submission id")
		return "", false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		httperrors.WriteDomain(w, model.ErrSubmissionNotFound)
		return "", false
	}
	return parsed.String(), true
}
