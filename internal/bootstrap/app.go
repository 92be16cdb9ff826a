package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-coach/internal/coach"
	"resume-coach/internal/documents"
	"resume-coach/internal/llm"
	"resume-coach/internal/llm/gemini"
	"resume-coach/internal/runs"
	"resume-coach/internal/search"
	"resume-coach/internal/services/health"
	"resume-coach/internal/shared/config"
	"resume-coach/internal/shared/metrics"
	"resume-coach/internal/shared/server"
	"resume-coach/internal/shared/storage/db"
	"resume-coach/internal/shared/storage/object"
	localstore "resume-coach/internal/shared/storage/object/local"
	s3store "resume-coach/internal/shared/storage/object/s3"
	"resume-coach/internal/shared/telemetry"
	"resume-coach/internal/web"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Generator        llm.Generator
	Searcher         search.Searcher
	Pipeline         *coach.Pipeline
	DocumentsService *documents.Service
	RunsService      *runs.Service
	Health           *health.Service
}

// Build connects storage, constructs the coaching pipeline and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	telemetry.SetLevel(telemetry.ParseLevel(cfg.LogLevel))

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	pipeline, gen, searcher := BuildPipeline(cfg)

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Generator: gen,
		Searcher:  searcher,
		Pipeline:  pipeline,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Health:          app.Health,
		RunHandler:      runs.NewHandler(app.RunsService),
		DocumentHandler: documents.NewHandler(app.DocumentsService),
		WebHandler:      web.NewHandler(app.RunsService),
	})
	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	closeDB(a.DB)
}

// BuildPipeline returns the coaching pipeline with its metrics hooks attached.
// A missing Gemini key yields a placeholder generator whose error text becomes the output.
func BuildPipeline(cfg config.Config) (*coach.Pipeline, llm.Generator, search.Searcher) {
	var gen llm.Generator = llm.PlaceholderGenerator{}
	client, err := gemini.NewClient(cfg.GeminiAPIKey, gemini.Options{
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Timeout: time.Duration(cfg.GeminiTimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Printf("bootstrap: %v; generation disabled", err)
	} else {
		gen = client
	}

	var searcher search.Searcher
	serper, err := search.NewClient(cfg.SerperAPIKey, search.Options{Results: cfg.SerperResults})
	if err != nil {
		log.Printf("bootstrap: %v; job search uses the model only", err)
	} else {
		searcher = serper
	}

	p := coach.NewPipeline(gen, searcher)
	p.OnStep = func(r coach.StepReport) {
		metrics.ObserveGeneration(r.Task, float64(r.Duration.Milliseconds()), r.Err != nil)
	}
	p.OnSearch = func(err error) {
		if err != nil {
			metrics.IncSearchFailed()
		}
	}
	return p, gen, searcher
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			closeDB(sqlDB)
			sqlDB = nil
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("database: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	var (
		docRepo documents.DocumentsRepo
		runRepo runs.Repo
	)
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		runRepo = &runs.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		runRepo = runs.NewMemoryRepo()
	}

	app.DocumentsService = &documents.Service{Store: app.Store, Repo: docRepo}
	app.RunsService = &runs.Service{
		Repo:     runRepo,
		Docs:     app.DocumentsService,
		Coach:    app.Pipeline,
		MaxBytes: app.Config.MaxUploadBytes,
	}

	var pinger health.Pinger
	if app.DB != nil {
		pinger = app.DB
	}
	app.Health = health.NewService(pinger, generationConfigured(app.Generator), app.Searcher != nil)
}

// generationConfigured is false when the placeholder stands in for a real client.
func generationConfigured(gen llm.Generator) bool {
	switch gen.(type) {
	case nil, llm.PlaceholderGenerator, *llm.PlaceholderGenerator:
		return false
	}
	return true
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB == nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("bootstrap: close database: %v", err)
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
