package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"venturesight-backend/internal/assistant"
	"venturesight-backend/internal/council"
	"venturesight-backend/internal/decks"
	"venturesight-backend/internal/llm"
	anthropicllm "venturesight-backend/internal/llm/anthropic"
	"venturesight-backend/internal/rag"
	"venturesight-backend/internal/shared/config"
	"venturesight-backend/internal/shared/server"
	"venturesight-backend/internal/shared/storage/db"
	"venturesight-backend/internal/shared/storage/object"
	localstore "venturesight-backend/internal/shared/storage/object/local"
	s3store "venturesight-backend/internal/shared/storage/object/s3"
	"venturesight-backend/internal/thesis"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	DecksRepo     decks.Repo
	CouncilRepo   council.Repo
	RagRepo       rag.Repo
	ThesisRepo    thesis.Repo
	AssistantRepo assistant.Repo

	DecksService     *decks.Service
	CouncilService   *council.Service
	RagService       *rag.Service
	ThesisService    *thesis.Service
	AssistantService *assistant.Service

	Sweeper *decks.Sweeper
}

// Build prepares shared dependencies and the router. It does not start
// the HTTP listener or the sweeper.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		DeckHandler:      decks.NewHandler(app.DecksService, cfg.MaxUploadMiB<<20),
		CouncilHandler:   council.NewHandler(app.CouncilService),
		RagHandler:       rag.NewHandler(app.RagService, app.DecksService),
		ThesisHandler:    thesis.NewHandler(app.ThesisService),
		AssistantHandler: assistant.NewHandler(app.AssistantService),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
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

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.DecksRepo = &decks.PGRepo{DB: app.DB}
		app.CouncilRepo = &council.PGRepo{DB: app.DB}
		app.RagRepo = &rag.PGRepo{DB: app.DB}
		app.ThesisRepo = &thesis.PGRepo{DB: app.DB}
		app.AssistantRepo = &assistant.PGRepo{DB: app.DB}
	} else {
		app.DecksRepo = decks.NewMemoryRepo()
		app.CouncilRepo = council.NewMemoryRepo()
		app.RagRepo = rag.NewMemoryRepo()
		app.ThesisRepo = thesis.NewMemoryRepo()
		app.AssistantRepo = assistant.NewMemoryRepo()
	}

	app.RagService = &rag.Service{Repo: app.RagRepo}
	app.ThesisService = &thesis.Service{Repo: app.ThesisRepo}

	app.DecksService = &decks.Service{
		Repo:       app.DecksRepo,
		Store:      app.Store,
		Chunks:     app.RagService,
		Analyses:   app.CouncilRepo,
		StaleAfter: app.Config.AnalyzingDeadline,
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if app.Config.LLMProvider == "anthropic" && app.Config.AnthropicAPIKey != "" {
		client, err := anthropicllm.NewClient(app.Config.AnthropicAPIKey, app.Config.LLMModel)
		if err != nil {
			log.Printf("bootstrap: anthropic client unavailable: %v", err)
		} else {
			llmClient = client
		}
	}

	app.CouncilService = &council.Service{
		Repo:       app.CouncilRepo,
		Decks:      app.DecksService,
		LLM:        llmClient,
		Thesis:     app.ThesisService,
		RunTimeout: app.Config.CouncilRunTimeout,
	}

	chatter := llm.Chatter(llm.PlaceholderClient{})
	if c, ok := llmClient.(llm.Chatter); ok {
		chatter = c
	}
	app.AssistantService = &assistant.Service{
		Repo:    app.AssistantRepo,
		Decks:   app.DecksService,
		Council: app.CouncilService,
		Thesis:  app.ThesisService,
		LLM:     chatter,
	}

	app.Sweeper = &decks.Sweeper{
		Svc:      app.DecksService,
		Schedule: app.Config.SweepSchedule,
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
