package api

import (
	"errors"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/replay"
	"github.com/papercomputeco/playback/pkg/response"
)

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	TraceFile     string `json:"trace_file"`
	Mode          string `json:"mode,omitempty"`
	ExactMatching bool   `json:"exact_matching,omitempty"`
	OnExhausted   string `json:"on_exhausted,omitempty"`
}

// CreateSessionResponse is returned when a session is created.
type CreateSessionResponse struct {
	ID      string `json:"id"`
	Entries int    `json:"entries"`
}

// SessionSummary describes a session and the state of its entries.
type SessionSummary struct {
	ID            string         `json:"id"`
	TraceFile     string         `json:"trace_file"`
	Mode          string         `json:"mode"`
	ExactMatching bool           `json:"exact_matching"`
	OnExhausted   string         `json:"on_exhausted"`
	ReplayItems   []string       `json:"replay_items,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Entries       []EntrySummary `json:"entries"`
}

// EntrySummary describes one recorded request.
type EntrySummary struct {
	Key           string `json:"key"`
	Generations   int    `json:"generations"`
	Intermediates int    `json:"intermediates,omitempty"`
	Cursor        int    `json:"cursor"`
	Remaining     int    `json:"remaining"`
}

// ResolveRequest is the body of POST /sessions/:id/resolve.
type ResolveRequest struct {
	// Description is the live request, e.g. "<-CMD:ls /tmp".
	Description string `json:"description"`

	// Exact restricts this lookup to literal key hits.
	Exact bool `json:"exact,omitempty"`
}

// ResolveResponse carries the replayed responses.
type ResolveResponse struct {
	Matched   bool           `json:"matched"`
	Key       string         `json:"key,omitempty"`
	Responses []ResponseBody `json:"responses"`
}

// ResponseBody is one materialized response.
type ResponseBody struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCreateSession loads a trace file into a new session.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if req.TraceFile == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "trace_file is required"})
	}

	mode, err := replay.ParseMode(req.Mode)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	policy, err := replay.ParseExhaustion(req.OnExhausted)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	sess, err := newSession(newSessionID(), replay.SessionConfig{
		TraceFile:     req.TraceFile,
		Mode:          mode,
		ExactMatching: req.ExactMatching,
		Exhaustion:    policy,
		Intercepts:    s.config.Intercepts,
		Logger:        s.logger,
	})
	if err != nil {
		s.logger.Warn("creating session failed", "trace_file", req.TraceFile, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	entries := sess.replay.Store().Len()
	s.add(sess)

	s.logger.Info("session created", "session", sess.id, "trace_file", req.TraceFile)

	return c.Status(fiber.StatusCreated).JSON(CreateSessionResponse{
		ID:      sess.id,
		Entries: entries,
	})
}

// handleListSessions returns the summaries of every session, oldest first.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	s.mu.RLock()
	all := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].created.Before(all[j].created)
	})

	summaries := make([]SessionSummary, 0, len(all))
	for _, sess := range all {
		summaries = append(summaries, sess.summary())
	}
	return c.JSON(summaries)
}

// handleGetSession returns a single session summary.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.lookup(c.Params("id"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(sess.summary())
}

// handleResolve replays the next recorded answer for a request.
func (s *Server) handleResolve(c *fiber.Ctx) error {
	sess, err := s.lookup(c.Params("id"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}

	var req ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "description is required"})
	}

	sess.mu.Lock()
	gen, responses, entry, err := sess.replay.Matcher().NextResponses(req.Description, req.Exact, s.config.Registry)
	sess.mu.Unlock()

	ev := eventstream.NewResolvedEvent(sess.id, req.Description)
	defer func() { s.publish(c.UserContext(), ev) }()

	if entry != nil {
		ev.Matched = true
		ev.Key = entry.Key()
		ev.Exact = entry.Key() == replay.CanonicalKey(req.Description)
		ev.Responses = gen
	}

	if err != nil {
		ev.Error = err.Error()
		var decodeErr *response.DecodeError
		switch {
		case errors.Is(err, replay.ErrMismatch):
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
		case errors.As(err, &decodeErr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
		}
	}

	result := ResolveResponse{Responses: []ResponseBody{}}
	if entry == nil {
		return c.JSON(result)
	}

	result.Matched = true
	result.Key = entry.Key()
	for _, r := range responses {
		result.Responses = append(result.Responses, ResponseBody{Type: r.TypeID(), Text: r.Text()})
	}
	return c.JSON(result)
}

// handleReload re-reads a session's trace file.
func (s *Server) handleReload(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.Reload(id); err != nil {
		status := statusFor(err)
		if status == fiber.StatusInternalServerError {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
	}

	sess, err := s.lookup(id)
	if err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(sess.summary())
}

// handleDeleteSession drops a session.
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.remove(id); err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}

	s.logger.Info("session deleted", "session", id)
	return c.SendStatus(fiber.StatusNoContent)
}
