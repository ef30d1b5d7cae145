package app

import (
	"context"
	"fmt"
	"log"

	"latexify/internal/gateway/config"
	"latexify/internal/gateway/handler"
	"latexify/internal/gateway/server"
	"latexify/internal/gateway/session"
	"latexify/internal/view"
)

type App struct {
	server *server.Server
}

func New(ctx context.Context, logger *log.Logger) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	deps, exporter, err := Deps(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore(cfg.Session.Max, cfg.Session.TTL, func() *view.Controller {
		return view.New(deps)
	})
	srv := server.New(server.Options{
		Addr:            cfg.Port,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		Logger:          logger,
	}, handler.NewSessionHandler(sessions, exporter.FileName()))

	return &App{server: srv}, nil
}

// Run blocks until ctx is done and the server has drained.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}
