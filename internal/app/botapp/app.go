package botapp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivankudzin/miraclemap/internal/config"
	"github.com/ivankudzin/miraclemap/internal/infra/metrics"
	s3infra "github.com/ivankudzin/miraclemap/internal/infra/s3"
	tginfra "github.com/ivankudzin/miraclemap/internal/infra/telegram"
	"github.com/ivankudzin/miraclemap/internal/jobs/cleanup"
	pgrepo "github.com/ivankudzin/miraclemap/internal/repo/postgres"
	"github.com/ivankudzin/miraclemap/internal/services/evidence"
	modsvc "github.com/ivankudzin/miraclemap/internal/services/moderation"
	violationsvc "github.com/ivankudzin/miraclemap/internal/services/violations"
)

// Messenger is the part of the telegram bot the handlers talk to.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendInline(ctx context.Context, chatID int64, text string, rows [][]tginfra.InlineButton) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	postgres   *pgxpool.Pool
	bot        *tginfra.Bot
	messenger  Messenger
	moderation *modsvc.Service
	violations *violationsvc.Service
	cleanupJob *cleanup.Job
	moderators map[int64]struct{}

	rejectMu     sync.Mutex
	rejectByUser map[int64]string
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("init postgres for bot app: %w", err)
	}

	var (
		archive    modsvc.EvidenceArchiver
		cleanupJob *cleanup.Job
	)
	if a, err := openEvidenceArchive(ctx, cfg.S3, logger); err != nil {
		logger.Warn("s3 unavailable, evidence archive and cleanup disabled", zap.Error(err))
	} else {
		archive = a
		cleanupJob = cleanup.NewEvidenceCleanupJob(a, cfg.Moderation.EvidenceRetention, logger.Named("cleanup"))
	}

	m := metrics.New()
	moderationService := modsvc.NewService(pgrepo.NewSubmissionRepo(pool), archive, m, logger.Named("moderation"))
	violationService := violationsvc.NewService(pgrepo.NewViolationRepo(pool), m, cfg.Moderation.StatsWindow)

	var bot *tginfra.Bot
	if strings.TrimSpace(cfg.Bot.Token) != "" {
		bot, err = tginfra.NewBot(cfg.Bot.Token)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init telegram bot: %w", err)
		}
	} else {
		logger.Warn("BOT_TOKEN is empty, moderator bot listener disabled")
	}

	app := newApp(cfg, logger, moderationService, violationService)
	app.postgres = pool
	app.bot = bot
	if bot != nil {
		app.messenger = bot
	}
	app.cleanupJob = cleanupJob
	return app, nil
}

func newApp(cfg config.Config, logger *zap.Logger, moderation *modsvc.Service, violations *violationsvc.Service) *App {
	moderators := make(map[int64]struct{}, len(cfg.Bot.ModeratorIDs))
	for _, id := range cfg.Bot.ModeratorIDs {
		moderators[id] = struct{}{}
	}
	return &App{
		cfg:          cfg,
		logger:       logger,
		moderation:   moderation,
		violations:   violations,
		moderators:   moderators,
		rejectByUser: make(map[int64]string),
	}
}

func openEvidenceArchive(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*evidence.Archive, error) {
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
	return evidence.NewArchive(storage, logger.Named("evidence")), nil
}

// Run polls telegram and runs the retention loop until ctx is done or one of
// them fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started", zap.Int("moderators", len(a.moderators)))

	g, gctx := errgroup.WithContext(ctx)
	if a.cleanupJob != nil {
		g.Go(func() error {
			return a.cleanupJob.Loop(gctx, a.cfg.Bot.CleanupInterval)
		})
	}
	if a.bot != nil {
		g.Go(func() error {
			return a.bot.Listen(gctx, tginfra.Handlers{
				OnCommand:  a.handleCommand,
				OnText:     a.handleText,
				OnCallback: a.handleCallback,
			})
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("bot app: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
