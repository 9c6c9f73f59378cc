package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "bookpass/docs"

	"bookpass/internal/config"
	"bookpass/internal/db"
	"bookpass/internal/logger"
	"bookpass/internal/notify"
	"bookpass/internal/server"
)

// @title BookPass API
// @version 1.0
// @description Multi-tenant service booking with package subscriptions and invoicing.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	if err := run(); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Info("Starting BookPass")

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database, "migrations"); err != nil {
		return err
	}
	logger.Info("Database ready, migrations applied")

	emailService := notify.NewEmailService(
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		cfg.RedisAddr,
	)
	defer emailService.Close()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go emailService.Start(workerCtx)
	logger.Info("Email worker started")

	srv := server.New(database, cfg, emailService)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("Listening on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received %v, shutting down", sig)
	case err := <-errChan:
		return err
	}

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}

	logger.Info("Stopped")
	return nil
}
