// Command consumer drains the booking event queue into logs/booking.log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pull-events/pull-api/internal/config"
	"github.com/pull-events/pull-api/internal/queue"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Config{
		Env:       os.Getenv("APP_ENV"),
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: os.Getenv("LOG_FORMAT"),
	}
	log := cfg.NewLogger(os.Stdout)

	path := os.Getenv("BOOKING_LOG_PATH")
	if path == "" {
		path = "logs/booking.log"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("booking consumer started", "log_path", path)
	err := queue.NewConsumer(os.Getenv("RABBITMQ_URL"), path, log).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("booking consumer stopped", "err", err)
		os.Exit(1)
	}
	log.Info("booking consumer stopped")
}
