package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cybertank378/student-point-app-sub000/internal/infra/app"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/config"
)

func main() {
	// Missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatalf("auth api: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	return application.Run(ctx)
}
