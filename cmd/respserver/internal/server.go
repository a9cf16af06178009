package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/ananthvk/simpleredis"
	"github.com/ananthvk/simpleredis/internal/metrics"
)

const (
	defaultReadBufferSize = 4096
	defaultMaxRequestSize = 64 * 1024 * 1024
)

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// MaxCommandsPerSecond throttles every connection separately. Zero disables throttling.
	MaxCommandsPerSecond int
	ReadBufferSize       int
	// MaxRequestSize is the largest request frame in bytes. A client that sends a larger one
	// gets a protocol error and is disconnected.
	MaxRequestSize int
}

// Server accepts client connections and runs every connection in its own goroutine. All
// connections share one Backend.
type Server struct {
	backend *simpleredis.Backend
	logger  *slog.Logger
	metrics *metrics.Metrics

	maxCommandsPerSecond int
	readBufferSize       int
	maxRequestSize       int

	wg sync.WaitGroup
}

func NewServer(backend *simpleredis.Backend, opts Options) *Server {
	s := &Server{
		backend:              backend,
		logger:               opts.Logger,
		metrics:              opts.Metrics,
		maxCommandsPerSecond: opts.MaxCommandsPerSecond,
		readBufferSize:       opts.ReadBufferSize,
		maxRequestSize:       opts.MaxRequestSize,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.readBufferSize <= 0 {
		s.readBufferSize = defaultReadBufferSize
	}
	if s.maxRequestSize <= 0 {
		s.maxRequestSize = defaultMaxRequestSize
	}
	return s
}

// Serve accepts connections from ln until ctx is cancelled or the listener fails. In both
// cases the listener and every open connection are closed, and Serve returns once all
// connection goroutines have finished.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	s.logger.Info("server listening", "address", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.Handle(ctx, conn)
		}()
	}
}
