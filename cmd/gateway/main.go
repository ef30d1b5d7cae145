package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"latexify/internal/gateway/app"
)

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize app: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		logger.Printf("gateway: %v", err)
		stop()
		os.Exit(1)
	}
}
