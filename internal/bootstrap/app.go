package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resume-wizard/internal/generation"
	"resume-wizard/internal/llm"
	openai "resume-wizard/internal/llm/openai"
	"resume-wizard/internal/resumeapi"
	"resume-wizard/internal/resumes"
	"resume-wizard/internal/services/health"
	"resume-wizard/internal/shared/config"
	"resume-wizard/internal/shared/server"
	"resume-wizard/internal/shared/server/middleware"
	"resume-wizard/internal/shared/storage/db"
	"resume-wizard/internal/shared/telemetry"
	"resume-wizard/internal/snapshot"
	"resume-wizard/internal/templates"
	"resume-wizard/internal/wizard"
	"resume-wizard/internal/wizard/steps"
	"resume-wizard/internal/wizardapi"
)

const sweepInterval = time.Minute

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Redis     *redis.Client
	Catalog   *templates.Catalog
	Gateway   resumeapi.Gateway
	Snapshots wizard.SnapshotStore
	Generator generation.Generator

	ResumesRepo    resumes.Repo
	ResumesService *resumes.Service
	Sessions       *wizard.Registry
	Steps          *steps.Registry

	ResumeHandler   *resumes.Handler
	TemplateHandler *templates.Handler
	WizardHandler   *wizardapi.Handler
	Health          *health.Service

	stopSweep context.CancelFunc
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Catalog: catalog,
	}

	if err := buildSnapshots(ctx, app); err != nil {
		return nil, err
	}
	if err := buildGenerator(app); err != nil {
		return nil, err
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		Health:          app.Health,
		ResumeHandler:   app.ResumeHandler,
		TemplateHandler: app.TemplateHandler,
		WizardHandler:   app.WizardHandler,
		RateLimiter:     middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// Start launches background work: idle session eviction.
func (a *App) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.stopSweep = cancel
	go a.Sessions.Run(ctx, sweepInterval)
}

// Close flushes live sessions and releases connections.
func (a *App) Close(ctx context.Context) error {
	if a.stopSweep != nil {
		a.stopSweep()
	}
	var errs []error
	if a.Sessions != nil {
		if err := a.Sessions.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close sessions: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) || cfg.GatewayURL != "" {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildCatalog(cfg config.Config) (*templates.Catalog, error) {
	if strings.TrimSpace(cfg.CatalogFile) == "" {
		return templates.Default()
	}
	catalog, err := templates.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogFile, err)
	}
	return catalog, nil
}

func buildSnapshots(ctx context.Context, app *App) error {
	if app.Config.SnapshotStore != "redis" {
		app.Snapshots = snapshot.NewMemory()
		return nil
	}
	store, client, err := snapshot.DialRedis(ctx, app.Config.RedisURL, app.Config.SnapshotTTL)
	if err != nil {
		if isDevLike(app.Config.Env) {
			log.Printf("bootstrap: redis unavailable; keeping snapshots in memory: %v", err)
			app.Snapshots = snapshot.NewMemory()
			return nil
		}
		return err
	}
	app.Snapshots = store
	app.Redis = client
	return nil
}

func buildGenerator(app *App) error {
	if app.Config.Generator != "llm" {
		app.Generator = generation.NewPlaceholder(app.Config.GenerationPhaseDelay)
		return nil
	}
	var client llm.Client
	switch strings.ToLower(app.Config.LLMProvider) {
	case "openai":
		c, err := openai.NewClient(app.Config.OpenAIAPIKey, app.Config.LLMModel)
		if err != nil {
			return err
		}
		client = c
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", llm.ErrNotConfigured, app.Config.LLMProvider)
	}
	app.Generator = generation.NewLLM(client)
	return nil
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
	} else {
		app.ResumesRepo = resumes.NewMemoryRepo()
	}
	app.ResumesService = resumes.NewService(app.ResumesRepo)

	if app.Config.GatewayURL != "" {
		client, err := resumeapi.NewClient(app.Config.GatewayURL, nil)
		if err != nil {
			return err
		}
		app.Gateway = client
	} else {
		app.Gateway = serviceGateway{svc: app.ResumesService}
	}

	app.Steps = steps.NewRegistry(app.Catalog)
	app.Sessions = wizard.NewRegistry(wizard.Options{
		Gateway:           app.Gateway,
		Store:             app.Snapshots,
		Generator:         app.Generator,
		Debounce:          app.Config.SyncDebounce,
		GenerationTimeout: app.Config.GenerationTimeout,
		Observer:          logEvent,
	}, app.Config.WizardIdle)

	app.ResumeHandler = resumes.NewHandler(app.ResumesService)
	app.TemplateHandler = templates.NewHandler(app.Catalog)
	app.WizardHandler = wizardapi.NewHandler(app.Sessions, app.Steps)
	app.Health = health.NewService(app.DB)

	if app.ResumeHandler == nil || app.WizardHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// serviceGateway persists wizard sessions through the in-process resumes service.
type serviceGateway struct {
	svc *resumes.Service
}

func (g serviceGateway) Create(ctx context.Context, payload resumeapi.Payload) (resumeapi.Resource, error) {
	resume, err := g.svc.Create(ctx, payload.UserID, payload)
	if err != nil {
		return resumeapi.Resource{}, mapResumeError(err)
	}
	return resumes.ToResource(resume), nil
}

func (g serviceGateway) Update(ctx context.Context, id string, payload resumeapi.Payload) (resumeapi.Resource, error) {
	resume, err := g.svc.Update(ctx, id, payload)
	if err != nil {
		return resumeapi.Resource{}, mapResumeError(err)
	}
	return resumes.ToResource(resume), nil
}

func mapResumeError(err error) error {
	switch {
	case errors.Is(err, resumes.ErrNotFound):
		return fmt.Errorf("%w: %v", resumeapi.ErrNotFound, err)
	case errors.Is(err, resumes.ErrInvalidInput):
		return fmt.Errorf("%w: %v", resumeapi.ErrRejected, err)
	default:
		return err
	}
}

// logEvent records session transitions; progress ticks are too chatty to log.
func logEvent(e wizard.Event) {
	fields := map[string]any{"wizard_key": e.Key, "event": string(e.Kind), "step": int(e.Step)}
	if e.Message != "" {
		fields["message"] = e.Message
	}
	switch e.Kind {
	case wizard.EventGenerationProgress, wizard.EventDataChanged:
		return
	case wizard.EventSyncFailed, wizard.EventGenerationFailed, wizard.EventRestoreWarning:
		if e.Err != nil {
			fields["error"] = e.Err.Error()
		}
		telemetry.Warn("wizard.event", fields)
	default:
		telemetry.Info("wizard.event", fields)
	}
}
