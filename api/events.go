package api

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/sse"
)

// keepAliveInterval spaces the comments sent on idle event streams. A failed
// keep-alive write is also how a gone client is noticed.
var keepAliveInterval = 15 * time.Second

// handleEvents streams resolved events as Server-Sent Events. The optional
// session query parameter limits the stream to one session.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	filter := c.Query("session")
	ch, cancel := s.events.Subscribe(0)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// io.Pipe gives per-event flushing: fasthttp writes each chunk it reads
	// from the pipe straight to the connection.
	pr, pw := io.Pipe()
	go s.streamEvents(ch, cancel, filter, pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) streamEvents(ch <-chan *eventstream.ResolvedEvent, cancel func(), filter string, pw *io.PipeWriter) {
	defer cancel()
	defer pw.Close()

	s.logger.Debug("event stream opened", "session", filter)
	defer s.logger.Debug("event stream closed", "session", filter)

	// Clients see the stream as open once the first bytes arrive.
	if err := sse.WriteComment(pw, "connected"); err != nil {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if filter != "" && ev.Session != filter {
				continue
			}

			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("encoding event failed", "event_id", ev.EventID, "error", err)
				continue
			}

			if err := sse.Write(pw, sse.Event{ID: ev.EventID, Type: ev.EventType, Data: string(data)}); err != nil {
				return
			}

		case <-ticker.C:
			if err := sse.WriteComment(pw, "keep-alive"); err != nil {
				return
			}
		}
	}
}
