// Command event-logger consumes reservation events from RabbitMQ and
// appends them to a log file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
)

func main() {
	_ = godotenv.Load()

	evCfg := config.LoadEventsConfig()
	logger := config.NewLogger(config.Config{
		Env:      os.Getenv("APP_ENV"),
		LogLevel: config.LogLevelFromEnv(),
	}, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{
		URL:     evCfg.URL,
		Queue:   evCfg.Queue,
		LogPath: evCfg.LogPath,
		Logger:  logger,
	}
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
