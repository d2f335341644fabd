package handlers

import (
	"net/http"

	httperrors "github.com/ivankudzin/miraclemap/internal/transport/http/errors"
)

type HealthResponse struct {
	Status         string            `json:"status"`
	LexiconVersion string            `json:"lexicon_version"`
	Components     map[string]string `json:"components"`
}

type HealthHandler struct {
	lexiconVersion string
	components     map[string]string
}

// NewHealthHandler reports the component modes decided at startup. Any
// component other than "ok" marks the service degraded; it still answers 200.
func NewHealthHandler(lexiconVersion string, components map[string]string) *HealthHandler {
	copied := make(map[string]string, len(components))
	for k, v := range components {
		copied[k] = v
	}
	return &HealthHandler{lexiconVersion: lexiconVersion, components: copied}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	for _, mode := range h.components {
		if mode != "ok" {
			status = "degraded"
			break
		}
	}
	httperrors.Write(w, http.StatusOK, HealthResponse{
		Status:         status,
		LexiconVersion: h.lexiconVersion,
		Components:     h.components,
	})
}
