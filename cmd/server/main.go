package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"timeClock/internal/attendance"
	"timeClock/internal/auth"
	"timeClock/internal/clock"
	"timeClock/internal/config"
	"timeClock/internal/db"
	grpcserver "timeClock/internal/grpc"
	internalhttp "timeClock/internal/http"
	"timeClock/internal/jobs"
	"timeClock/repository"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("Configuration loaded: %v", cfg)

	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := clock.Zone(cfg.Clock.OffsetHours)
	sysClock := clock.System{}

	users := repository.NewUserRepository(d)
	sessionRepo := repository.NewSessionRepository(d)
	ledger := repository.NewAttendanceRepository(d, loc)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("redis unavailable at %s, session cache will fall through: %v", cfg.Redis.Addr, err)
		} else {
			log.Printf("session cache enabled on redis %s", cfg.Redis.Addr)
		}
		cancel()
		defer func() { _ = redisClient.Close() }()
	}
	sessionStore := repository.NewCachedSessionStore(sessionRepo, redisClient)

	if cfg.Auth.BootstrapAdminUsername != "" {
		if err := auth.BootstrapAdmin(ctx, users, cfg.Auth.BootstrapAdminUsername, cfg.Auth.BootstrapAdminPassword); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		log.Printf("bootstrap admin %q ready", cfg.Auth.BootstrapAdminUsername)
	}

	guard := auth.NewGuard(sessionStore, users, sysClock)
	sessions := auth.NewSessions(sessionStore, users, sysClock, cfg.Auth.SessionTTL)
	svc := attendance.NewService(ledger, users, sysClock, loc)

	jobs.StartSessionSweepJob(ctx, cfg.Jobs.SessionSweepInterval, sessionRepo, sysClock)

	// Start HTTP
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           internalhttp.NewServer(guard, sessions, svc, cfg.HTTP.SecureCookie).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTP.Address)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Start gRPC
	shutdownGRPC, err := grpcserver.StartGRPC(cfg, &grpcserver.PunchServer{Guard: guard, Attendance: svc})
	if err != nil {
		log.Fatalf("start grpc: %v", err)
	}
	log.Printf("gRPC server listening on %s", cfg.GRPC.Address)

	// Wait for signal
	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := shutdownGRPC(shutdownCtx); err != nil {
		log.Printf("grpc shutdown error: %v", err)
	}
}
