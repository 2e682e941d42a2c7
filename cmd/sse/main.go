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

	"github.com/tinysteps/report-service/internal/adapters/events"
	"github.com/tinysteps/report-service/internal/api/handlers"
	"github.com/tinysteps/report-service/internal/api/middleware"
	"github.com/tinysteps/report-service/internal/infrastructure/clients/redis"
	"github.com/tinysteps/report-service/internal/infrastructure/observability"
	"github.com/tinysteps/report-service/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-sse", os.Getenv("APP_ENV"))
	log.Println("Starting report event stream server...")

	// Redis is mandatory here; without it there is nothing to stream
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis client initialized successfully")

	eventSink := events.NewRedisEventSink(redisClient)
	defer eventSink.Close()

	streamHandler := handlers.NewEventStreamHandler(eventSink, cfg.Report.EventsChannel)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api/v1/stream/reports", streamHandler.StreamReportEvents)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no timeout for SSE streaming
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Event stream server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Event stream server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Event stream server shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Event stream server stopped")
}
