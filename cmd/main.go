package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/benetrust/trustadmin-backend/internal/db"
	"github.com/benetrust/trustadmin-backend/internal/handlers"
	"github.com/benetrust/trustadmin-backend/internal/middleware"
	"github.com/benetrust/trustadmin-backend/internal/platform/envutil"
	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/platform/policy"
	"github.com/benetrust/trustadmin-backend/internal/platform/storage"
	"github.com/benetrust/trustadmin-backend/internal/repos"
	"github.com/benetrust/trustadmin-backend/internal/server"
	"github.com/benetrust/trustadmin-backend/internal/services"
	"github.com/benetrust/trustadmin-backend/internal/wizard"
)

func main() {
	// Logger
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	if envutil.Bool("OTEL_STDOUT_TRACE", false) {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			log.Warn("Could not init stdout trace exporter", "error", err)
		} else {
			tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
			otel.SetTracerProvider(tp)
			defer func() { _ = tp.Shutdown(context.Background()) }()
		}
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis (optional parse cache)
	var cache *redis.Client
	if addr := envutil.String("REDIS_ADDR", ""); addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: envutil.String("REDIS_PASSWORD", ""),
		})
		if err := cache.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unreachable, parse caching disabled", "error", err)
			cache = nil
		}
	}

	// File store
	fileStore, err := storage.NewFromEnv(log)
	if err != nil {
		log.Fatal("Could not init file store", "error", err)
	}

	// Wizard type catalog
	registry, err := wizard.DefaultRegistry()
	if err != nil {
		log.Fatal("Invalid wizard catalog", "error", err)
	}

	// Repos
	log.Info("Setting up repos...")
	instRepo := repos.NewWizardInstanceRepo(thePG, log)
	linkRepo := repos.NewMonthlyLinkRepo(thePG, log)
	fileRepo := repos.NewStoredFileRepo(thePG, log)
	mappingRepo := repos.NewFeedMappingRepo(thePG, log)
	employerRepo := repos.NewEmployerRepo(thePG, log)
	workerRepo := repos.NewWorkerRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	policyEval := policy.NewOwnershipEvaluator()
	parserSvc := services.NewParserService(thePG, log, fileStore, fileRepo, cache)
	mappingSvc := services.NewMappingService(thePG, log, mappingRepo)
	wizardSvc := services.NewWizardService(thePG, log, registry, policyEval, instRepo, linkRepo, fileRepo, parserSvc)
	appliers := map[wizard.EntityType]services.RecordApplier{
		wizard.EntityEmployer: services.NewEmployerApplier(employerRepo),
		wizard.EntityWorker:   services.NewWorkerApplier(workerRepo),
	}
	feedSvc := services.NewFeedService(thePG, log, registry, policyEval, instRepo, parserSvc, appliers)
	reportSvc := services.NewReportService(thePG, log, registry, policyEval, instRepo, employerRepo, parserSvc)

	// Handlers
	log.Info("Setting up handlers...")
	authMiddleware := middleware.NewAuthMiddleware(log, envutil.String("JWT_SECRET_KEY", "defaultsecret"))
	wizardHandler := handlers.NewWizardHandler(log, registry, wizardSvc)
	feedHandler := handlers.NewFeedHandler(log, registry, wizardSvc, feedSvc, mappingSvc, parserSvc, reportSvc)

	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware: authMiddleware,
		WizardHandler:  wizardHandler,
		FeedHandler:    feedHandler,
		AllowOrigins:   splitOrigins(envutil.String("CORS_ALLOW_ORIGINS", "")),
	})

	addr := ":" + envutil.String("PORT", "8080")
	log.Info("Starting server", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
