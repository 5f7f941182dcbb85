package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/lockvest/investment-engine/internal/config"
	"github.com/lockvest/investment-engine/internal/repository"
	"github.com/lockvest/investment-engine/internal/service"
)

// The operator reconciliation loop runs as its own binary on its own clock.
// It re-derives every client's lifecycle state with the same engine the
// client loop uses; the two processes coordinate only through the stored
// facts and the timestamp-anchored recomputation rule.
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

	operatorService := service.NewOperatorService(
		repository.NewLedgerRepository(redisClient),
		repository.NewClaimRepository(redisClient),
		repository.NewSchemeRepository(db),
		repository.NewUserRepository(db),
		service.NewLedgerGuard(),
	)

	scheduler := cron.New(cron.WithSeconds())
	_, err = scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.Lifecycle.ReconcileInterval), func() {
		operatorService.Tick(context.Background(), time.Now())
	})
	if err != nil {
		logrus.Fatalf("Failed to schedule operator reconciliation loop: %v", err)
	}

	scheduler.Start()
	logrus.Info("Operator reconciliation scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down scheduler...")
	scheduler.Stop()
	logrus.Info("Scheduler stopped")
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
