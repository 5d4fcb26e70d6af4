package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/seatgrid/seatgrid/config"
	"github.com/seatgrid/seatgrid/internal/admission"
	"github.com/seatgrid/seatgrid/internal/handler"
	"github.com/seatgrid/seatgrid/internal/lockstore"
	"github.com/seatgrid/seatgrid/internal/middleware"
	"github.com/seatgrid/seatgrid/internal/repository"
	"github.com/seatgrid/seatgrid/internal/service"
	"github.com/seatgrid/seatgrid/internal/strategy"
	"github.com/seatgrid/seatgrid/pkg/cache"
	"github.com/seatgrid/seatgrid/pkg/db"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// ── Connect to PostgreSQL (seat store) ──────────────
	pgPool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	defer pgPool.Close()
	log.Println("✓ PostgreSQL connected")

	// ── Connect to Redis (lock store) ───────────────────
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ── Initialize layers ───────────────────────────────
	seatRepo := repository.NewSeatRepository(pgPool)
	eventRepo := repository.NewEventRepository(pgPool)
	locks := lockstore.New(redisClient, cfg.Booking.LockTTL)

	var admissionCache admission.Cache = admission.Disabled{}
	if cfg.Booking.AdmissionCacheEnabled {
		admissionCache = admission.NewRedisCache(redisClient)
	}
	instrumented := admission.NewInstrumented(admissionCache)

	commit := strategy.New(cfg.Booking.Strategy, seatRepo)
	log.Printf("✓ commit strategy: %s (available: %v)", commit.Name(), strategy.Names())

	bookingSvc := service.NewBookingService(locks, instrumented, commit, cfg.Booking.OpTimeout)
	eventSvc := service.NewEventService(eventRepo, instrumented, cfg.Booking.LockTTL)
	reconciler := service.NewReconciler(locks, seatRepo, eventRepo,
		cfg.Reconciler.SweepInterval, cfg.Reconciler.StaleThreshold)

	bookingHandler := handler.NewBookingHandler(bookingSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	healthHandler := handler.NewHealthHandler(
		func(ctx context.Context) error { return db.HealthCheck(ctx, pgPool) },
		func(ctx context.Context) error { return cache.HealthCheck(ctx, redisClient) },
	)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()

	router.HandleFunc("/health/live", healthHandler.Live).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods(http.MethodGet)

	router.HandleFunc("/events", eventHandler.CreateEvent).Methods(http.MethodPost)
	router.HandleFunc("/events/{id}", eventHandler.GetEvent).Methods(http.MethodGet)
	router.HandleFunc("/events/{id}/seats", eventHandler.GetSeatMap).Methods(http.MethodGet)
	router.HandleFunc("/bookings", bookingHandler.BookSeats).Methods(http.MethodPost)

	chain := middleware.CORS(middleware.RequestLogger(middleware.Recoverer(router)))

	// ── Start background reconciler ─────────────────────
	reconcilerCtx, stopReconciler := context.WithCancel(ctx)
	defer stopReconciler()
	go reconciler.Run(reconcilerCtx)

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Server.ServerAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Shutting down server...")
	stopReconciler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	stats := instrumented.Stats()
	log.Printf("[admission] final counters: peeks=%d hits=%d decrements=%d errors=%d",
		stats.Peeks, stats.Hits, stats.Decrements, stats.Errors)
	log.Println("✅ Server gracefully stopped")
}
