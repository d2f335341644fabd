package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/miraclemap/internal/config"
	"github.com/ivankudzin/miraclemap/internal/infra/metrics"
	s3infra "github.com/ivankudzin/miraclemap/internal/infra/s3"
	tginfra "github.com/ivankudzin/miraclemap/internal/infra/telegram"
	"github.com/ivankudzin/miraclemap/internal/repo/memory"
	pgrepo "github.com/ivankudzin/miraclemap/internal/repo/postgres"
	redrepo "github.com/ivankudzin/miraclemap/internal/repo/redis"
	"github.com/ivankudzin/miraclemap/internal/services/admission"
	authsvc "github.com/ivankudzin/miraclemap/internal/services/auth"
	"github.com/ivankudzin/miraclemap/internal/services/contentfilter"
	"github.com/ivankudzin/miraclemap/internal/services/evidence"
	modsvc "github.com/ivankudzin/miraclemap/internal/services/moderation"
	ratesvc "github.com/ivankudzin/miraclemap/internal/services/rate"
	violationsvc "github.com/ivankudzin/miraclemap/internal/services/violations"
	"github.com/ivankudzin/miraclemap/internal/transport/http/handlers"
)

const (
	componentOK       = "ok"
	componentMemory   = "memory"
	componentDisabled = "disabled"
)

type submissionStore interface {
	admission.Store
	modsvc.Store
	handlers.PublishedLister
}

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

// New wires the API. Postgres is required unless postgres.allow_memory_fallback
// is set. Redis, S3 and telegram are optional: each one that cannot be reached
// is disabled and reported by /healthz.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	lexicon, err := LoadLexicon(cfg.Moderation.LexiconPath)
	if err != nil {
		return nil, err
	}
	classifier := contentfilter.NewClassifier(lexicon)
	log.Info("lexicon loaded",
		zap.String("version", lexicon.Version()),
		zap.Int("terms", lexicon.TermCount()),
		zap.Strings("languages", lexicon.Languages()),
	)

	m := metrics.New()
	components := make(map[string]string)

	var (
		store      submissionStore
		violations violationsvc.Store
	)
	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		if !cfg.Postgres.AllowMemoryFallback {
			return nil, fmt.Errorf("init postgres for api app: %w", err)
		}
		log.Warn("postgres init failed, continuing with in-memory store; data will not survive a restart", zap.Error(err))
		mem := memory.NewStore()
		store, violations = mem, mem
		components["postgres"] = componentMemory
	} else {
		store = pgrepo.NewSubmissionRepo(pool)
		violations = pgrepo.NewViolationRepo(pool)
		components["postgres"] = componentOK
	}

	var (
		limiter    admission.Limiter
		cache      admission.VerdictCache
		revocation authsvc.RevocationStore
	)
	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redrepo.Ping(ctx, redisClient); err != nil {
		log.Warn("redis unavailable, rate limits and verdict cache disabled", zap.Error(err))
		_ = redisClient.Close()
		redisClient = nil
		components["redis"] = componentDisabled
	} else {
		limiter = ratesvc.NewLimiter(redrepo.NewWindowRepo(redisClient), RateRules(cfg.Moderation.Limits))
		cache = redrepo.NewVerdictCache(redisClient)
		revocation = redrepo.NewSessionRepo(redisClient)
		components["redis"] = componentOK
	}

	var archive modsvc.EvidenceArchiver
	if a, err := openEvidenceArchive(ctx, cfg.S3, log); err != nil {
		log.Warn("s3 unavailable, rejected evidence will not be archived", zap.Error(err))
		components["s3"] = componentDisabled
	} else {
		archive = a
		components["s3"] = componentOK
	}

	var notifier admission.Notifier
	if strings.TrimSpace(cfg.Bot.Token) != "" && cfg.Bot.ModeratorChatID != 0 {
		if bot, err := tginfra.NewBot(cfg.Bot.Token); err != nil {
			log.Warn("telegram init failed, moderators will not be notified", zap.Error(err))
			components["telegram"] = componentDisabled
		} else {
			notifier = tginfra.NewPendingNotifier(bot, cfg.Bot.ModeratorChatID)
			components["telegram"] = componentOK
		}
	} else {
		components["telegram"] = componentDisabled
	}

	pipeline := admission.NewPipeline(classifier, store, admission.Config{
		ReviewBelowConfidence: cfg.Moderation.ReviewBelowConfidence,
		PreviewCacheTTL:       cfg.Moderation.PreviewCacheTTL,
	}, log.Named("admission")).WithMetrics(m)
	if limiter != nil {
		pipeline.WithLimiter(limiter)
	}
	if cache != nil {
		pipeline.WithVerdictCache(cache)
	}
	if notifier != nil {
		pipeline.WithNotifier(notifier)
	}

	moderationService := modsvc.NewService(store, archive, m, log.Named("moderation"))
	violationService := violationsvc.NewService(violations, m, cfg.Moderation.StatsWindow)
	authService := authsvc.NewService(authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL), revocation)

	r := NewRouter(Dependencies{
		Pipeline:          pipeline,
		ModerationService: moderationService,
		ViolationService:  violationService,
		AuthService:       authService,
		Published:         store,
		Metrics:           m,
		LexiconVersion:    lexicon.Version(),
		Components:        components,
		Logger:            log,
	})

	var handler http.Handler = r
	if cfg.HTTP.RequestTimeout > 0 {
		handler = http.TimeoutHandler(r, cfg.HTTP.RequestTimeout, `{"code":"TIMEOUT","message":"request timed out"}`)
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

// LoadLexicon reads the override file when path is set and falls back to the
// built-in lexicon otherwise. A broken override file is fatal.
func LoadLexicon(path string) (*contentfilter.Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return contentfilter.DefaultLexicon(), nil
	}
	lexicon, err := contentfilter.LoadLexiconFile(path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon %s: %w", path, err)
	}
	return lexicon, nil
}

func RateRules(limits config.LimitsConfig) map[ratesvc.Scope][]ratesvc.Rule {
	return map[ratesvc.Scope][]ratesvc.Rule{
		ratesvc.ScopeSubmit: {
			{Window: time.Minute, Limit: limits.SubmitPerMinute},
			{Window: time.Hour, Limit: limits.SubmitPerHour},
		},
		ratesvc.ScopePreview: {
			{Window: time.Minute, Limit: limits.PreviewPerMinute},
		},
	}
}

func openEvidenceArchive(ctx context.Context, cfg config.S3Config, log *zap.Logger) (*evidence.Archive, error) {
	client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := s3infra.Ping(ctx, client, cfg.Bucket); err != nil {
		return nil, err
	}

	storage := evidence.NewS3Storage(client, cfg.Bucket)
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return evidence.NewArchive(storage, log.Named("evidence")), nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
