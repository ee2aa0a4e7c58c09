package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"jasmined/internal/errors"
	"jasmined/internal/log"

	"golang.org/x/sync/errgroup"
)

// Connector is a plain TCP/HTTP listener binding. An empty Host binds
// every interface.
type Connector struct {
	Host string
	Port int
}

// Addr returns the host:port the connector listens on.
func (c Connector) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server is the embedded HTTP engine the launcher drives. Calls must
// follow the lifecycle: configure, Start once, Join once.
type Server interface {
	SetHandler(h http.Handler) error
	AddConnector(c Connector) error
	Start() error
	Join() error
}

// State is a point in the server lifecycle.
type State int

const (
	Unconfigured State = iota
	Configured
	Started
	Joined
	Stopped
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Started:
		return "started"
	case Joined:
		return "joined"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// DefaultShutdownTimeout bounds how long in-flight requests may finish
// after the server context is cancelled.
const DefaultShutdownTimeout = 5 * time.Second

// HTTPServer implements Server on net/http. It shuts down when ctx is
// cancelled, which is what makes Join return.
type HTTPServer struct {
	ctx             context.Context
	ShutdownTimeout time.Duration

	mu         sync.Mutex
	state      State
	handler    http.Handler
	connectors []Connector
	listeners  []net.Listener
	group      *errgroup.Group
}

var _ Server = (*HTTPServer)(nil)

// NewHTTPServer creates an unconfigured server bound to ctx.
func NewHTTPServer(ctx context.Context) *HTTPServer {
	return &HTTPServer{
		ctx:             ctx,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// State returns the current lifecycle state.
func (s *HTTPServer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetHandler installs h as the sole handler.
func (s *HTTPServer) SetHandler(h http.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state > Configured {
		return stateError("cannot set handler", s.state)
	}
	s.handler = h
	s.state = Configured
	return nil
}

// AddConnector registers a listener binding to open on Start.
func (s *HTTPServer) AddConnector(c Connector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state > Configured {
		return stateError("cannot add connector", s.state)
	}
	s.connectors = append(s.connectors, c)
	s.state = Configured
	return nil
}

// Start binds every connector and begins accepting connections. Bind
// failures are returned immediately as ServerStartFailure; the server is
// then stopped for good.
func (s *HTTPServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Started || s.state == Joined {
		return errors.ErrServerStarted
	}
	if s.state != Configured {
		return stateError("cannot start", s.state)
	}
	if s.handler == nil || len(s.connectors) == 0 {
		return errors.NewServerError("server needs a handler and a connector before start", "",
			errors.InvalidServerState, nil)
	}

	for _, c := range s.connectors {
		ln, err := net.Listen("tcp", c.Addr())
		if err != nil {
			for _, open := range s.listeners {
				open.Close()
			}
			s.listeners = nil
			s.state = Stopped
			return errors.NewServerError("failed to bind connector", c.Addr(), errors.ServerStartFailure, err)
		}
		s.listeners = append(s.listeners, ln)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.Default().StdLogger(),
	}

	g, gctx := errgroup.WithContext(s.ctx)
	for _, ln := range s.listeners {
		ln := ln
		g.Go(func() error {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return errors.NewServerError("server stopped unexpectedly", ln.Addr().String(),
					errors.ServerStartFailure, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Debug("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	s.group = g
	s.state = Started
	for _, ln := range s.listeners {
		log.LogWithFields(log.F("addr", ln.Addr().String())).Debug("Connector listening")
	}
	return nil
}

// Join blocks until the server has shut down. A shutdown caused by
// cancelling the server context is not an error.
func (s *HTTPServer) Join() error {
	s.mu.Lock()
	if s.state != Started {
		state := s.state
		s.mu.Unlock()
		return stateError("cannot join", state)
	}
	s.state = Joined
	g := s.group
	s.mu.Unlock()

	err := g.Wait()

	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()
	return err
}

// Addrs returns the bound listener addresses; useful when a connector
// asked for port 0.
func (s *HTTPServer) Addrs() []net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := make([]net.Addr, 0, len(s.listeners))
	for _, ln := range s.listeners {
		addrs = append(addrs, ln.Addr())
	}
	return addrs
}

func stateError(msg string, state State) error {
	return errors.NewServerError(msg+" while "+state.String(), "", errors.InvalidServerState, nil)
}
