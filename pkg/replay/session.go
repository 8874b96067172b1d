package replay

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/playback/pkg/intercept"
	"github.com/papercomputeco/playback/pkg/logger"
	"github.com/papercomputeco/playback/pkg/response"
	"github.com/papercomputeco/playback/pkg/trace"
)

// Mode is the capture mode a session runs in.
type Mode string

const (
	ModeRecord             Mode = "record"
	ModeReplay             Mode = "replay"
	ModeReplayOldRecordNew Mode = "replay_old_record_new"
)

// ParseMode validates a mode name. An empty name means ModeReplay.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeReplay:
		return ModeReplay, nil
	case ModeRecord, ModeReplayOldRecordNew:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (available: record, replay, replay_old_record_new)", s)
	}
}

// Traffic is a live interaction waiting for a recorded answer.
type Traffic interface {
	// Description is the request key, in the same form the trace records it.
	Description() string

	// HasInfo reports whether the traffic carries anything to match on.
	HasInfo() bool

	// IsMarkedForReplay reports whether the traffic belongs to one of the
	// named intercepts or instances.
	IsMarkedForReplay(names map[string]struct{}) bool
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// TraceFile is the recorded trace. Empty means a session with no
	// recorded traffic, which is never active.
	TraceFile string

	// Mode is the capture mode.
	Mode Mode

	// ExactMatching makes unmatched lookups fail instead of falling back to
	// the closest recorded request.
	ExactMatching bool

	// Exhaustion picks the generation replayed once an entry is used up.
	Exhaustion Exhaustion

	// Intercepts lists intercepted commands and attributes. Optional.
	Intercepts intercept.Source

	// Logger receives match diagnostics. Optional.
	Logger *slog.Logger
}

// Session is the replay state for one run: the parsed trace, its matcher,
// and which intercepted names the trace exercises.
type Session struct {
	store         *Store
	matcher       *Matcher
	mode          Mode
	replayItems   []string
	instanceNames []string
	logger        *slog.Logger
}

// NewSession loads c.TraceFile and prepares it for replay. A trace file that
// cannot be read fails the whole session.
func NewSession(c SessionConfig) (*Session, error) {
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Session{
		store:  NewStore(),
		mode:   c.Mode,
		logger: log,
	}
	if s.mode == "" {
		s.mode = ModeReplay
	}

	if c.TraceFile != "" {
		chunks, err := trace.ReadFile(c.TraceFile)
		if err != nil {
			return nil, err
		}
		s.store.AddChunks(chunks)

		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		if c.Intercepts != nil {
			s.replayItems = intercept.FilterForReplay(intercept.SourceItems(c.Intercepts), texts)
		}
		s.instanceNames = intercept.InstanceNames(texts)

		log.Debug("replay session loaded",
			"trace_file", c.TraceFile,
			"entries", s.store.Len(),
			"replay_items", s.replayItems,
		)
	}

	policy := c.Exhaustion
	if policy == "" {
		policy = ReplayLast
	}
	s.matcher = NewMatcher(s.store,
		WithExactMatching(c.ExactMatching),
		WithExhaustion(policy),
		WithLogger(log),
	)

	return s, nil
}

// Store returns the parsed trace.
func (s *Session) Store() *Store {
	return s.store
}

// Matcher returns the session's matcher.
func (s *Session) Matcher() *Matcher {
	return s.matcher
}

// Mode returns the session's capture mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// ReplayItems returns the intercepted names found in the trace.
func (s *Session) ReplayItems() []string {
	return s.replayItems
}

// InstanceNames returns the recorded instance names.
func (s *Session) InstanceNames() []string {
	return s.instanceNames
}

// IsActiveForAll reports whether every interaction should be replayed.
func (s *Session) IsActiveForAll() bool {
	return s.store.Len() > 0 && s.mode == ModeReplay
}

// IsActiveFor reports whether t should be answered from the trace.
func (s *Session) IsActiveFor(t Traffic) bool {
	switch {
	case s.store.Len() == 0:
		return false
	case s.mode == ModeReplay:
		return true
	}

	names := make(map[string]struct{}, len(s.replayItems)+len(s.instanceNames))
	for _, n := range s.replayItems {
		names[n] = struct{}{}
	}
	for _, n := range s.instanceNames {
		names[n] = struct{}{}
	}
	return t.IsMarkedForReplay(names)
}

// ReadReplayResponses returns the recorded responses for t. With exactOnly
// set, only a literal key hit produces responses.
func (s *Session) ReadReplayResponses(t Traffic, reg *response.Registry, exactOnly bool) ([]response.Response, error) {
	if !t.HasInfo() {
		return nil, nil
	}
	return s.matcher.resolve(t.Description(), exactOnly, reg)
}

// FindResponseStartingWith returns the first response chunk, minus its type
// marker, of the first recorded request whose text after the marker starts
// with prefix. It inspects only and never consumes a generation.
func (s *Session) FindResponseStartingWith(prefix string) (string, bool) {
	for _, entry := range s.store.order {
		if !strings.HasPrefix(trace.Payload(entry.key), prefix) {
			continue
		}
		if gen := entry.Peek(s.matcher.exhaustion); len(gen) > 0 {
			return trace.Payload(gen[0]), true
		}
	}
	return "", false
}
