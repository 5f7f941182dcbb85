package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/lockvest/investment-engine/internal/auth"
	"github.com/lockvest/investment-engine/internal/config"
	"github.com/lockvest/investment-engine/internal/domain"
	"github.com/lockvest/investment-engine/internal/handler"
	"github.com/lockvest/investment-engine/internal/repository"
	"github.com/lockvest/investment-engine/internal/service"
	"github.com/lockvest/investment-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Repositories
	schemeRepo := repository.NewSchemeRepository(db)
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(redisClient)
	claimRepo := repository.NewClaimRepository(redisClient)

	// Services. The guard is shared: the tick loop, the client handlers, and
	// the approval write-back all mutate the same KV values.
	guard := service.NewLedgerGuard()
	catalogService := service.NewCatalogService(schemeRepo)
	clientService := service.NewClientService(ledgerRepo, claimRepo, schemeRepo, userRepo, guard, cfg.GetProcessingDelay())
	operatorService := service.NewOperatorService(ledgerRepo, claimRepo, schemeRepo, userRepo, guard)
	tokens := auth.NewTokenManager(userRepo, cfg.Auth.JWTSecret, cfg.GetTokenTTL())

	// Handlers
	authHandler := handler.NewAuthHandler(tokens)
	clientHandler := handler.NewClientHandler(clientService, catalogService)
	operatorHandler := handler.NewOperatorHandler(operatorService, catalogService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(tokens, authHandler, clientHandler, operatorHandler, healthHandler)

	// The client reconciliation loop: the host cadence driving Tick. The
	// lifecycle engine itself knows nothing about "every second".
	scheduler := cron.New(cron.WithSeconds())
	_, err = scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.Lifecycle.ReconcileInterval), func() {
		clientService.TickAll(context.Background(), time.Now())
	})
	if err != nil {
		logrus.Fatalf("Failed to schedule client reconciliation loop: %v", err)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logrus.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func setupRoutes(
	tokens *auth.TokenManager,
	authHandler *handler.AuthHandler,
	clientHandler *handler.ClientHandler,
	operatorHandler *handler.OperatorHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Client routes
	client := api.PathPrefix("").Subrouter()
	client.Use(tokens.Middleware)
	client.HandleFunc("/schemes", clientHandler.ListSchemes).Methods("GET")
	client.HandleFunc("/portfolio", clientHandler.Portfolio).Methods("GET")
	client.HandleFunc("/investments", clientHandler.Apply).Methods("POST")
	client.HandleFunc("/investments/withdraw", clientHandler.Withdraw).Methods("POST")

	// Operator routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(tokens.Middleware)
	admin.Use(auth.RequireRole(domain.RoleAdmin))
	admin.HandleFunc("/stats", operatorHandler.Stats).Methods("GET")
	admin.HandleFunc("/investments", operatorHandler.Investments).Methods("GET")
	admin.HandleFunc("/schemes", operatorHandler.ListSchemes).Methods("GET")
	admin.HandleFunc("/schemes", operatorHandler.CreateScheme).Methods("POST")
	admin.HandleFunc("/schemes/{schemeId}", operatorHandler.EditScheme).Methods("PUT")
	admin.HandleFunc("/schemes/{schemeId}/toggle", operatorHandler.ToggleScheme).Methods("POST")
	admin.HandleFunc("/schemes/{schemeId}/history", operatorHandler.SchemeHistory).Methods("GET")
	admin.HandleFunc("/claims", operatorHandler.ListClaims).Methods("GET")
	admin.HandleFunc("/claims/export", operatorHandler.ExportClaims).Methods("GET")
	admin.HandleFunc("/claims/{claimId}/approve", operatorHandler.ApproveClaim).Methods("POST")

	return router
}
