package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/glabspro/bee/internal/client/gemini"
	"github.com/glabspro/bee/internal/config"
	appointmentHandler "github.com/glabspro/bee/internal/handler/appointment"
	"github.com/glabspro/bee/internal/handler/health"
	notesHandler "github.com/glabspro/bee/internal/handler/notes"
	planHandler "github.com/glabspro/bee/internal/handler/plan"
	promHandler "github.com/glabspro/bee/internal/handler/prometheus"
	sedeHandler "github.com/glabspro/bee/internal/handler/sede"
	"github.com/glabspro/bee/internal/middleware"
	"github.com/glabspro/bee/internal/repository"
	"github.com/glabspro/bee/internal/repository/memory"
	"github.com/glabspro/bee/internal/repository/postgres"
	"github.com/glabspro/bee/internal/router"
	appointmentService "github.com/glabspro/bee/internal/service/appointment"
	notesService "github.com/glabspro/bee/internal/service/notes"
	planService "github.com/glabspro/bee/internal/service/plan"
	sedeService "github.com/glabspro/bee/internal/service/sede"
	"github.com/glabspro/bee/pkg/logger"
	"github.com/glabspro/bee/pkg/messaging"
	"github.com/glabspro/bee/pkg/messaging/redis"
	"github.com/glabspro/bee/pkg/metrics"
)

func main() {
	configDir := flag.String("config", "", "directory holding config.yaml")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})

	ctx := context.Background()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry, cfg.Metrics.Namespace)

	// Durable store
	var (
		db              *sqlx.DB
		sedeRepo        repository.SedeRepository
		appointmentRepo repository.AppointmentRepository
	)
	if cfg.Database.Enabled {
		db, err = postgres.NewDB(ctx, postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Name:            cfg.Database.Name,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			log.Fatal(err, "failed to connect to database")
		}
		defer db.Close()

		if cfg.Database.AutoMigrate {
			if err := postgres.EnsureSchema(ctx, db); err != nil {
				log.Fatal(err, "failed to apply schema")
			}
		}
		sedeRepo = postgres.NewSedeRepository(db)
		appointmentRepo = postgres.NewAppointmentRepository(db)
	} else {
		log.Info("database disabled, using in-memory store")
		store := memory.NewStore()
		sedeRepo = store.Sedes()
		appointmentRepo = store.Appointments()
	}

	// Events
	var events messaging.Publisher = messaging.NopPublisher{}
	if cfg.Redis.Enabled {
		broker, err := redis.NewRedisBroker(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, log)
		if err != nil {
			log.Fatal(err, "failed to connect to Redis")
		}
		defer broker.Close()
		events = messaging.NewEventPublisher(broker, cfg.Redis.Channel)
	}

	// Text analysis
	var analyzer notesService.Analyzer = notesService.DisabledAnalyzer{}
	geminiClient, err := gemini.New(ctx, gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
	})
	switch {
	case err == nil:
		defer geminiClient.Close()
		analyzer = geminiClient
	case errors.Is(err, notesService.ErrAnalyzerDisabled):
		log.Info("no Gemini API key, note analysis disabled")
	default:
		log.Warn(err, "failed to create Gemini client, note analysis disabled")
	}

	// Services
	sedeSvc := sedeService.NewService(sedeRepo, m, log, sedeService.WithOverlapCheck(cfg.Scheduling.StrictOverlap))
	appointmentSvc := appointmentService.NewService(appointmentRepo, events, m, log, appointmentService.WithSedeDirectory(sedeSvc))
	planSvc := planService.NewService(planService.Config{
		TTL:           cfg.Scheduling.PlanTTL,
		ConflictCheck: cfg.Scheduling.ConflictCheck,
	}, appointmentSvc, sedeSvc, m, log)
	notesSvc := notesService.NewService(analyzer, m, log)

	if notice := sedeSvc.Load(ctx); notice != nil {
		log.Warn(nil, "sede directory loaded with defaults", "notice", notice.String())
	}
	if notice := appointmentSvc.Load(ctx); notice != nil {
		log.Warn(nil, "appointments not loaded", "notice", notice.String())
	}

	// Router
	var pinger health.Pinger
	if db != nil {
		pinger = db
	}
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins

	routerConfig := router.RouterConfig{
		MaxBodySize: cfg.Server.MaxBodyBytes,
		CORSConfig:  corsConfig,
		ReleaseMode: cfg.Server.ReleaseMode,
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerConfig.RateBurst = cfg.RateLimit.Burst
	}

	r, err := router.NewRouter(log, router.Handlers{
		Health:      health.NewHandler(pinger),
		Sede:        sedeHandler.NewHandler(sedeSvc, appointmentSvc),
		Appointment: appointmentHandler.NewHandler(appointmentSvc),
		Plan:        planHandler.NewHandler(planSvc),
		Notes:       notesHandler.NewHandler(notesSvc),
		Metrics:     promHandler.New(registry, cfg.Metrics.Namespace),
	}, routerConfig)
	if err != nil {
		log.Fatal(err, "failed to build router")
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
		return
	}

	log.Info("server exited properly")
}
