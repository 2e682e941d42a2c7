package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tinysteps/report-service/internal/adapters/cache"
	"github.com/tinysteps/report-service/internal/adapters/database"
	"github.com/tinysteps/report-service/internal/adapters/events"
	"github.com/tinysteps/report-service/internal/adapters/render"
	"github.com/tinysteps/report-service/internal/api/handlers"
	"github.com/tinysteps/report-service/internal/api/routes"
	"github.com/tinysteps/report-service/internal/application/services"
	domainproviders "github.com/tinysteps/report-service/internal/domain/providers"
	"github.com/tinysteps/report-service/internal/infrastructure/clients/postgres"
	"github.com/tinysteps/report-service/internal/infrastructure/clients/redis"
	"github.com/tinysteps/report-service/internal/infrastructure/clients/upstream"
	"github.com/tinysteps/report-service/internal/infrastructure/observability"
	"github.com/tinysteps/report-service/pkg/config"
	"github.com/tinysteps/report-service/pkg/resilience"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis; the service degrades to no caching and no event
	// publication when it is unavailable
	var cacheProvider domainproviders.CacheProvider
	var eventSink domainproviders.EventSink
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis client: %v", err)
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventSink = events.NewRedisEventSink(redisClient)
			defer eventSink.Close()
			log.Println("Redis client initialized successfully")
		}
	}

	// Register one circuit breaker per upstream dependency
	policy := resilience.Policy{
		Timeout:      cfg.Upstream.CallTimeout,
		MaxAttempts:  cfg.Upstream.MaxAttempts,
		BackoffBase:  cfg.Upstream.BackoffBase,
		BackoffMax:   cfg.Upstream.BackoffMax,
		FailureRatio: cfg.Upstream.FailureRatio,
		MinSamples:   uint32(cfg.Upstream.MinSamples),
		CoolDown:     cfg.Upstream.CircuitCoolDown,
		Window:       cfg.Upstream.CircuitWindow,
	}

	registry := resilience.NewRegistry()
	registry.OnTransition(func(name string, from, to resilience.CircuitState) {
		observability.RecordCircuitTransition(context.Background(), metrics, name, string(from), string(to))
	})
	scheduleDep := registry.Register(resilience.DepSchedule, policy)
	enrichmentDeps := services.EnrichmentDeps{
		Patient: registry.Register(resilience.DepPatient, policy),
		Doctor:  registry.Register(resilience.DepDoctor, policy),
		User:    registry.Register(resilience.DepUser, policy),
		Session: registry.Register(resilience.DepSession, policy),
	}

	// Upstream service clients share one HTTP core per base URL
	scheduleClient := upstream.NewScheduleClient(upstream.NewClient(cfg.Upstream.ScheduleURL, cfg.Auth.InternalSecret))
	patientClient := upstream.NewPatientClient(upstream.NewClient(cfg.Upstream.PatientURL, cfg.Auth.InternalSecret))
	doctorClient := upstream.NewDoctorClient(upstream.NewClient(cfg.Upstream.DoctorURL, cfg.Auth.InternalSecret))
	userClient := upstream.NewUserClient(upstream.NewClient(cfg.Upstream.UserURL, cfg.Auth.InternalSecret))
	sessionClient := upstream.NewSessionClient(upstream.NewClient(cfg.Upstream.SessionURL, cfg.Auth.InternalSecret))

	// Initialize services
	enrichmentService := services.NewEnrichmentService(
		enrichmentDeps,
		patientClient,
		doctorClient,
		userClient,
		sessionClient,
		cacheProvider,
		int(cfg.Report.LookupCacheTTL.Seconds()),
		cfg.Report.EnrichmentWorkers,
		metrics,
	)

	reportService := services.NewReportService(
		database.NewReportAdapter(pgClient),
		scheduleClient,
		scheduleDep,
		enrichmentService,
		[]domainproviders.Renderer{
			render.NewPDFRenderer(cfg.Report.StoragePath),
			render.NewExcelRenderer(cfg.Report.StoragePath),
		},
		eventSink,
		cfg.Report.EventsChannel,
		metrics,
	)

	// Initialize HTTP surface
	reportHandler := handlers.NewReportHandler(reportService, cfg.Report.StoragePath)
	router := routes.NewRouter(reportHandler, cfg.Auth.JWTSecret, metrics)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
