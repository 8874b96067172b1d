// Package api provides an HTTP API server for driving replay sessions.
package api

import (
	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/intercept"
	"github.com/papercomputeco/playback/pkg/replay"
	"github.com/papercomputeco/playback/pkg/response"
)

// DefaultSessionID is the id of the session created from Config.Default.
const DefaultSessionID = "default"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090")
	ListenAddr string

	// Default, when its TraceFile is set, is loaded at startup as the
	// session with id DefaultSessionID.
	Default replay.SessionConfig

	// Intercepts is applied to every session created through the API.
	Intercepts intercept.Source

	// Registry materializes resolved responses. Defaults to
	// response.DefaultRegistry().
	Registry *response.Registry

	// Publisher also receives every resolved event. Events always reach
	// GET /events subscribers; this is for an external stream. Defaults to
	// a no-op publisher.
	Publisher eventstream.Publisher
}
