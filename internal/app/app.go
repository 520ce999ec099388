package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"blogpilot/internal/config"
	"blogpilot/internal/domain"
	"blogpilot/internal/infrastructure/images"
	"blogpilot/internal/infrastructure/llm"
	"blogpilot/internal/infrastructure/scheduler"
	"blogpilot/internal/infrastructure/social"
	"blogpilot/internal/infrastructure/storage"
	"blogpilot/internal/infrastructure/wordpress"
	"blogpilot/internal/logging"
	"blogpilot/internal/rotation"
	"blogpilot/internal/usecase"
	"blogpilot/internal/validator"
)

// Application wires configs to the engine and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	rules     *storage.RuleRepository
	engine    *usecase.Engine
	rotation  *rotation.Manager
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance. The database connection is
// opened and migrated eagerly so startup fails fast on a bad DSN.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	topics := storage.NewTopicRepository(db)
	articles := storage.NewArticleRepository(db)
	metricsRepo := storage.NewMetricsRepository(db)
	rules := storage.NewRuleRepository(db)

	generator := llm.NewClient(cfg.OpenAI)
	topicGen := llm.NewTopicGenerator(generator)

	registry := images.NewRegistry()
	registry.Register(images.NewPexelsProvider(cfg.Images.PexelsKey, nil))
	registry.Register(images.NewUnsplashProvider(cfg.Images.UnsplashKey, nil))
	searcher, err := images.NewSearcher(registry, cfg.Images.Provider)
	if err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}

	telegram := social.NewTelegram(cfg.Social.Telegram.BotToken, cfg.Social.Telegram.ChatID)

	roster := rotation.NewConfigRoster(rosterMap(cfg.Rosters))
	rotationMgr := rotation.NewManager(roster, articles,
		baseLogger.With("component", "rotation"),
		rotation.WithFallback(fallbackAuthors(cfg.Rosters)),
	)

	engine := usecase.NewEngine(usecase.Deps{
		Topics:    topics,
		Articles:  articles,
		Metrics:   metricsRepo,
		Generator: generator,
		TopicGen:  topicGen,
		Images:    searcher,
		Media:     images.NewHTTPFetcher(nil),
		CMS:       wordpress.NewClient(cfg.WordPress),
		Social:    telegram,
		Notifier:  telegram,
		Rotation:  rotationMgr,
		Validator: validator.New(),
		Logger:    baseLogger.With("component", "engine"),
		Policy: usecase.Policy{
			MaxRetries:        cfg.Workflow.MaxRetries,
			GenerationTimeout: cfg.Workflow.GenerationTimeout,
			MinTopicBuffer:    cfg.Workflow.MinTopicBuffer,
			TopicBatchSize:    cfg.Workflow.TopicBatchSize,
			DefaultCategoryID: cfg.WordPress.DefaultCategoryID,
			SocialChannels:    cfg.Social.Channels,
		},
	})

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval)
	sched := usecase.NewScheduler(driver, rules, engine, baseLogger.With("component", "scheduler"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		rules:     rules,
		engine:    engine,
		rotation:  rotationMgr,
		scheduler: sched,
	}, nil
}

// RunAutomationRule executes one workflow run for the rule and returns its
// result. This is the single exposed entry point.
func (a *Application) RunAutomationRule(ctx context.Context, ruleID int64) (domain.WorkflowResult, error) {
	rule, err := a.rules.GetRule(ctx, ruleID)
	if err != nil {
		return domain.WorkflowResult{}, fmt.Errorf("load rule %d: %w", ruleID, err)
	}
	if !rule.Active {
		return domain.WorkflowResult{}, fmt.Errorf("rule %d is not active", ruleID)
	}

	return a.engine.Run(ctx, rule), nil
}

// Serve starts the interval scheduler and blocks until the context ends.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()
	return a.scheduler.Stop(context.Background())
}

// Rotation exposes the rotation manager for operator commands.
func (a *Application) Rotation() *rotation.Manager {
	return a.rotation
}

// Close releases the database connection.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func rosterMap(rosters []config.RosterConfig) map[string][]domain.Author {
	out := make(map[string][]domain.Author, len(rosters))
	for _, roster := range rosters {
		authors := make([]domain.Author, 0, len(roster.Authors))
		for _, a := range roster.Authors {
			authors = append(authors, domain.Author{
				ID:          a.ID,
				Name:        a.Name,
				Specialties: a.Specialties,
				Weight:      a.Weight,
			})
		}
		out[roster.BlogID] = authors
	}
	return out
}

// fallbackAuthors uses the first configured author per blog as the degraded
// single-author fallback.
func fallbackAuthors(rosters []config.RosterConfig) map[string]domain.Author {
	out := make(map[string]domain.Author, len(rosters))
	for _, roster := range rosters {
		if len(roster.Authors) == 0 {
			continue
		}
		a := roster.Authors[0]
		out[roster.BlogID] = domain.Author{
			ID:          a.ID,
			Name:        a.Name,
			Specialties: a.Specialties,
			Weight:      a.Weight,
		}
	}
	return out
}
