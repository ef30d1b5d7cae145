package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"latexify/internal/gateway/handler"
)

const defaultShutdownTimeout = 5 * time.Second

type Options struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	// Logger receives lifecycle messages and net/http errors. Defaults to
	// the standard logger.
	Logger *log.Logger
}

// Server serves the session API over HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	grace      time.Duration

	// base parents every request context. Cancelling it on shutdown ends
	// hijacked watch connections, which http.Server.Shutdown does not track.
	base       context.Context
	cancelBase context.CancelFunc

	mu   sync.Mutex
	addr string
}

func New(opts Options, sessions *handler.SessionHandler) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	grace := opts.ShutdownTimeout
	if grace <= 0 {
		grace = defaultShutdownTimeout
	}
	base, cancel := context.WithCancel(context.Background())
	s := &Server{logger: logger, grace: grace, base: base, cancelBase: cancel}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           h2c.NewHandler(NewRouter(sessions, opts.AllowedOrigins), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger,
		BaseContext:       func(net.Listener) context.Context { return s.base },
	}
	return s
}

// Addr is the bound listener address, empty until Run is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run serves until ctx is done, then drains in-flight requests for at most
// the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.logger.Printf("gateway: listening on %s", s.addr)

	served := make(chan error, 1)
	go func() { served <- s.httpServer.Serve(ln) }()

	select {
	case err := <-served:
		s.cancelBase()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Printf("gateway: shutting down (grace %s)", s.grace)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	s.cancelBase()
	err = s.httpServer.Shutdown(shutdownCtx)
	<-served
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Printf("gateway: stopped")
	return nil
}
