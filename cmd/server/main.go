package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	_ "github.com/lib/pq"

	grpcapi "venue-approval-backend/internal/api/grpc"
	"venue-approval-backend/internal/api/grpc/interceptor"
	httpapi "venue-approval-backend/internal/api/http"
	"venue-approval-backend/internal/config"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
	"venue-approval-backend/internal/repository/memory"
	"venue-approval-backend/internal/repository/postgres"
	"venue-approval-backend/internal/security"
	"venue-approval-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Venue Approval Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.GetHTTPAddress(), "grpc", cfg.GetGRPCAddress())

	// Initialize store
	store, closeStore := openStore(cfg)
	defer closeStore()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Initialize notifier
	var notifier service.Notifier
	if cfg.Email.SendGridAPIKey != "" {
		logger.Info("E-mail notifications enabled", "from", cfg.Email.FromEmail)
		notifier = service.NewSendGridNotifier(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	} else {
		logger.Info("No SendGrid key configured, notifications are logged only")
		notifier = service.NewLogNotifier()
	}

	// Initialize Services
	detector := service.NewConflictDetector(store, cfg.Location())
	bookingMgr := service.NewBookingManager(store)
	resolver := service.NewHierarchyResolver(store.Organizations())

	authSvc := service.NewAuthService(store.Organizations(), tokenManager)
	orgSvc := service.NewOrganizationService(store)
	venueSvc := service.NewVenueService(store, detector)
	eventSvc := service.NewEventService(store, resolver, bookingMgr, notifier)

	// HTTP API
	handler := httpapi.NewHandler(authSvc, orgSvc, venueSvc, eventSvc, store)
	httpServer := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           httpapi.NewRouter(handler, tokenManager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// gRPC health service
	var grpcServer *grpc.Server
	if cfg.Server.GRPCPort != 0 {
		lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
			log.Fatalf("Failed to listen: %v", err)
		}

		authInterceptor := interceptor.NewAuthInterceptor(tokenManager)
		grpcServer = grpc.NewServer(
			grpc.ChainUnaryInterceptor(authInterceptor.Unary(), grpcapi.AccessLogUnary()),
			grpc.ChainStreamInterceptor(authInterceptor.Stream(), grpcapi.AccessLogStream()),
		)

		reporter := grpcapi.NewHealthReporter(store, 15*time.Second)
		healthpb.RegisterHealthServer(grpcServer, reporter.Server())
		go reporter.Run(ctx)

		// Register reflection service for grpcurl
		reflection.Register(grpcServer)

		go func() {
			logger.Info("gRPC server listening", "address", cfg.GetGRPCAddress())
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("Failed to serve gRPC", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down servers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info("Servers stopped. Goodbye!")
}

// openStore connects the configured store and returns a func releasing it.
func openStore(cfg *config.Config) (repository.Store, func()) {
	if cfg.Database.Type == config.DatabaseTypeMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.Migrate {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			logger.Error("Failed to apply schema", "error", err)
			log.Fatalf("Failed to apply schema: %v", err)
		}
		logger.Info("Database schema applied")
	}

	return postgres.NewStore(db), func() { db.Close() }
}
