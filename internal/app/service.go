// Package app owns the gateway's HTTP servers and their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cnoe-io/platform-api-gateway/pkg/logger"
)

// Default server settings.
const (
	defaultAddr              = ":8080"
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
)

// Timeouts groups the http.Server connection timeouts. Zero fields keep the
// defaults.
type Timeouts struct {
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
	ReadHeader time.Duration
}

// Service runs the public listener and, when configured, the admin listener.
type Service struct {
	mu sync.Mutex

	// Configuration
	addr         string
	adminAddr    string
	handler      http.Handler
	adminHandler http.Handler
	timeouts     Timeouts
	logger       logger.Logger

	// State
	started    bool
	public     *http.Server
	admin      *http.Server
	publicAddr net.Addr
	adminBound net.Addr
	errCh      chan error
	serveGroup sync.WaitGroup
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithAddr sets the public listen address.
func WithAddr(addr string) Option {
	return func(s *Service) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithHandler sets the public handler.
func WithHandler(h http.Handler) Option {
	return func(s *Service) {
		s.handler = h
	}
}

// WithAdmin enables the admin listener on addr. An empty addr or nil handler
// leaves it disabled.
func WithAdmin(addr string, h http.Handler) Option {
	return func(s *Service) {
		s.adminAddr = addr
		s.adminHandler = h
	}
}

// WithTimeouts overrides connection timeouts.
func WithTimeouts(t Timeouts) Option {
	return func(s *Service) {
		if t.Read > 0 {
			s.timeouts.Read = t.Read
		}
		if t.Write > 0 {
			s.timeouts.Write = t.Write
		}
		if t.Idle > 0 {
			s.timeouts.Idle = t.Idle
		}
		if t.ReadHeader > 0 {
			s.timeouts.ReadHeader = t.ReadHeader
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		addr: defaultAddr,
		timeouts: Timeouts{
			Read:       defaultReadTimeout,
			Write:      defaultWriteTimeout,
			Idle:       defaultIdleTimeout,
			ReadHeader: defaultReadHeaderTimeout,
		},
		errCh: make(chan error, 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listeners and serves in the background. Bind failures are
// returned synchronously; later serve failures arrive on Err.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.handler == nil {
		return ErrNoHandler
	}

	var lc net.ListenConfig
	publicLn, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrListen, s.addr, err)
	}

	var adminLn net.Listener
	if s.adminEnabled() {
		adminLn, err = lc.Listen(ctx, "tcp", s.adminAddr)
		if err != nil {
			_ = publicLn.Close()
			return fmt.Errorf("%w: %s: %w", ErrListen, s.adminAddr, err)
		}
		s.admin = s.newServer(s.adminHandler)
		s.adminBound = adminLn.Addr()
	}

	s.public = s.newServer(s.handler)
	s.publicAddr = publicLn.Addr()

	s.serve(ctx, "public", s.public, publicLn)
	if adminLn != nil {
		s.serve(ctx, "admin", s.admin, adminLn)
	}

	s.started = true
	return nil
}

func (s *Service) adminEnabled() bool {
	return s.adminAddr != "" && s.adminHandler != nil
}

func (s *Service) newServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadTimeout:       s.timeouts.Read,
		WriteTimeout:      s.timeouts.Write,
		IdleTimeout:       s.timeouts.Idle,
		ReadHeaderTimeout: s.timeouts.ReadHeader,
	}
}

func (s *Service) serve(ctx context.Context, name string, srv *http.Server, ln net.Listener) {
	if s.logger != nil {
		s.logger.Info(ctx, "starting HTTP server", logger.String("listener", name), logger.String("addr", ln.Addr().String()))
	}
	s.serveGroup.Add(1)
	go func() {
		defer s.serveGroup.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.logger != nil {
				s.logger.Error(ctx, "HTTP server failed", logger.String("listener", name), logger.Error(err))
			}
			select {
			case s.errCh <- fmt.Errorf("%s listener: %w", name, err):
			default:
			}
		}
	}()
}

// Err delivers serve failures that happen after Start returned.
func (s *Service) Err() <-chan error {
	return s.errCh
}

// Addr reports the bound public address, or nil before Start.
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicAddr
}

// AdminAddr reports the bound admin address, or nil when disabled.
func (s *Service) AdminAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminBound
}

// Stop shuts both servers down gracefully, waiting for in-flight requests
// until ctx expires.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.started = false
	public, admin := s.public, s.admin
	s.mu.Unlock()

	var errs []error
	if err := public.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("public listener: %w", err))
	}
	if admin != nil {
		if err := admin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin listener: %w", err))
		}
	}
	s.serveGroup.Wait()

	if s.logger != nil {
		s.logger.Info(ctx, "server stopped")
	}
	return errors.Join(errs...)
}
