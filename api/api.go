package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/eventstream/broadcast"
	"github.com/papercomputeco/playback/pkg/eventstream/nop"
	"github.com/papercomputeco/playback/pkg/logger"
	"github.com/papercomputeco/playback/pkg/response"
)

// Server is the API server for creating replay sessions and resolving
// requests against them.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
	events *broadcast.Broadcaster

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewServer creates a new API server. When config.Default names a trace file
// it is loaded as the "default" session and a failure to load it is returned.
func NewServer(config Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	if config.Registry == nil {
		config.Registry = response.DefaultRegistry()
	}
	if config.Publisher == nil {
		config.Publisher = nop.NewPublisher()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		logger:   log,
		app:      app,
		events:   broadcast.New(log),
		sessions: make(map[string]*session),
	}

	if config.Default.TraceFile != "" {
		c := config.Default
		if c.Intercepts == nil {
			c.Intercepts = config.Intercepts
		}
		if c.Logger == nil {
			c.Logger = log
		}

		sess, err := newSession(DefaultSessionID, c)
		if err != nil {
			return nil, err
		}
		s.sessions[DefaultSessionID] = sess
	}

	app.Get("/ping", s.handlePing)
	app.Post("/sessions", s.handleCreateSession)
	app.Get("/sessions", s.handleListSessions)
	app.Get("/sessions/:id", s.handleGetSession)
	app.Post("/sessions/:id/resolve", s.handleResolve)
	app.Post("/sessions/:id/reload", s.handleReload)
	app.Delete("/sessions/:id", s.handleDeleteSession)
	app.Get("/events", s.handleEvents)

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"sessions", len(s.sessions),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Serve runs the API server on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting API server",
		"listen", ln.Addr().String(),
		"sessions", len(s.sessions),
	)
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the API server. Open event streams are
// ended first so that their connections can drain.
func (s *Server) Shutdown() error {
	_ = s.events.Close()
	if err := s.config.Publisher.Close(); err != nil {
		s.logger.Warn("closing event publisher failed", "error", err)
	}
	return s.app.Shutdown()
}

// publish hands ev to event stream subscribers and the configured publisher.
// Failures are logged; they never fail the request that caused them.
func (s *Server) publish(ctx context.Context, ev *eventstream.ResolvedEvent) {
	if err := s.events.PublishResolved(ctx, ev); err != nil && !errors.Is(err, eventstream.ErrPublisherClosed) {
		s.logger.Warn("broadcasting event failed", "event_id", ev.EventID, "error", err)
	}
	if err := s.config.Publisher.PublishResolved(ctx, ev); err != nil {
		s.logger.Warn("publishing event failed", "event_id", ev.EventID, "error", err)
	}
}

// Reload re-reads the trace file of session id and resets its cursors.
func (s *Server) Reload(id string) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}

	if err := sess.reload(); err != nil {
		s.logger.Error("reloading session failed", "session", id, "error", err)
		return err
	}

	s.logger.Info("session reloaded", "session", id, "trace_file", sess.config.TraceFile)
	return nil
}

func (s *Server) lookup(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, SessionNotFoundError{ID: id}
	}
	return sess, nil
}

func (s *Server) add(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

func (s *Server) remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return SessionNotFoundError{ID: id}
	}
	delete(s.sessions, id)
	return nil
}

func newSessionID() string {
	return uuid.NewString()
}

// statusFor maps lookup errors to HTTP status codes.
func statusFor(err error) int {
	var notFound SessionNotFoundError
	if errors.As(err, &notFound) {
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}
