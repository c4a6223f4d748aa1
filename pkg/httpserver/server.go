package httpserver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const (
	_defaultAddr            = ":80"
	_defaultReadTimeout     = 5 * time.Second
	_defaultWriteTimeout    = 5 * time.Second
	_defaultShutdownTimeout = 3 * time.Second
)

// Server serves the operational endpoints (health, metrics) in the background.
// A listener failure is delivered once through Notify.
type Server struct {
	App *fiber.App

	eg     *errgroup.Group
	notify chan error

	address         string
	listener        net.Listener
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration

	logger logger.Interface
}

func New(l logger.Interface, opts ...Option) *Server {
	eg, _ := errgroup.WithContext(context.Background())
	eg.SetLimit(1)

	s := &Server{
		eg:              eg,
		notify:          make(chan error, 1),
		address:         _defaultAddr,
		readTimeout:     _defaultReadTimeout,
		writeTimeout:    _defaultWriteTimeout,
		shutdownTimeout: _defaultShutdownTimeout,
		logger:          l,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.App = fiber.New(fiber.Config{
		AppName:               "analytics-bridge",
		ReadTimeout:           s.readTimeout,
		WriteTimeout:          s.writeTimeout,
		DisableStartupMessage: true,
	})

	return s
}

func (s *Server) Start() {
	addr := s.address
	if s.listener != nil {
		addr = s.listener.Addr().String()
	}

	s.eg.Go(func() error {
		err := s.serve()
		if err != nil {
			s.notify <- err
			close(s.notify)
		}

		return err
	})

	s.logger.Info("httpserver - Server - Started on %s", addr)
}

func (s *Server) serve() error {
	if s.listener != nil {
		return s.App.Listener(s.listener)
	}

	return s.App.Listen(s.address)
}

func (s *Server) Notify() <-chan error {
	return s.notify
}

func (s *Server) Shutdown() error {
	var errs []error

	if err := s.App.ShutdownWithTimeout(s.shutdownTimeout); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error(err, "httpserver - Server - Shutdown - s.App.ShutdownWithTimeout")
		errs = append(errs, err)
	}

	if err := s.eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error(err, "httpserver - Server - Shutdown - s.eg.Wait")
		errs = append(errs, err)
	}

	s.logger.Info("httpserver - Server - Shutdown")

	return errors.Join(errs...)
}
