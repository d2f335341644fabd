package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/miraclemap/internal/infra/metrics"
	"github.com/ivankudzin/miraclemap/internal/services/admission"
	authsvc "github.com/ivankudzin/miraclemap/internal/services/auth"
	modsvc "github.com/ivankudzin/miraclemap/internal/services/moderation"
	violationsvc "github.com/ivankudzin/miraclemap/internal/services/violations"
	httperrors "github.com/ivankudzin/miraclemap/internal/transport/http/errors"
	"github.com/ivankudzin/miraclemap/internal/transport/http/handlers"
)

type Dependencies struct {
	Pipeline          *admission.Pipeline
	ModerationService *modsvc.Service
	ViolationService  *violationsvc.Service
	AuthService       *authsvc.Service
	Published         handlers.PublishedLister
	Metrics           *metrics.Metrics
	LexiconVersion    string
	Components        map[string]string
	Logger            *zap.Logger
}

func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()
	ApplyMiddlewares(r, deps.Logger)
	RegisterRoutes(r, deps)
	return r
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.LexiconVersion, deps.Components)
	submissionHandler := handlers.NewSubmissionHandler(deps.Pipeline, deps.ModerationService, deps.Published)
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService)
	violationsHandler := handlers.NewViolationsHandler(deps.ViolationService)

	r.Get("/healthz", healthHandler.Handle)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/submissions", submissionHandler.ListPublished)
		r.Get("/submissions/{id}/moderation", submissionHandler.Moderation)

		r.Group(func(r chi.Router) {
			r.Use(OptionalAuthMiddleware(deps.AuthService, deps.Logger))
			r.Post("/submissions", submissionHandler.Create)
			r.Post("/submissions/validate", submissionHandler.Validate)
			r.Get("/submissions/quota", submissionHandler.Quota)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(AuthMiddleware(deps.AuthService, deps.Logger))
		r.Use(RequireRole(authsvc.RoleOwner, authsvc.RoleModerator))

		r.Get("/moderation/pending", moderationHandler.Pending)
		r.Get("/moderation/reject-reasons", moderationHandler.RejectReasons)
		r.Post("/moderation/{id}/approve", moderationHandler.Approve)
		r.Post("/moderation/{id}/reject", moderationHandler.Reject)

		r.Get("/violations", violationsHandler.Recent)
		r.Get("/violations/stats", violationsHandler.Stats)
		r.Get("/violations/authors/{author_id}", violationsHandler.ByAuthor)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "NOT_FOUND", Message: "route not found"})
	})
}
