package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"latexify/internal/export"
	"latexify/internal/gateway/app"
	"latexify/internal/gateway/config"
	"latexify/internal/tui"
	"latexify/internal/view"
)

func main() {
	logPath := flag.String("log", "latexify.log", "log file")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	f, err := tea.LogToFile(*logPath, "")
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, exporter, err := app.Deps(ctx, cfg)
	if err != nil {
		log.Printf("init failed: %v", err)
		os.Exit(1)
	}

	ctrl := view.New(deps)
	defer ctrl.Close()

	if err := tui.Run(ctx, ctrl, export.NewDirSaver(cfg.Export.Dir), exporter.FileName()); err != nil {
		log.Printf("tui: %v", err)
		os.Exit(1)
	}
}
