package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"smartreminder/internal/config"
	"smartreminder/internal/container"
	"smartreminder/internal/handlers"
	"smartreminder/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load(".env.local")

	logger.Init(config.GetEnv("LOG_LEVEL", "info"))
	log := logger.Get()

	if envErr != nil {
		log.Info("No .env file found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer c.Close()

	c.Scheduler.Start()
	defer c.Scheduler.Stop()

	mux := http.NewServeMux()
	handlers.Register(mux, c.ReminderService, c.DB, log)

	port := config.GetEnv("PORT", "8080")
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}
