package api

import (
	"sync"
	"time"

	"github.com/papercomputeco/playback/pkg/replay"
)

// session wraps a replay session with the lock that serializes its lookups.
// The replay store has no locking of its own.
type session struct {
	mu      sync.Mutex
	id      string
	config  replay.SessionConfig
	replay  *replay.Session
	created time.Time
}

func newSession(id string, c replay.SessionConfig) (*session, error) {
	rs, err := replay.NewSession(c)
	if err != nil {
		return nil, err
	}

	return &session{
		id:      id,
		config:  c,
		replay:  rs,
		created: time.Now(),
	}, nil
}

// reload re-reads the trace file. The old state is kept when loading fails.
func (s *session) reload() error {
	rs, err := replay.NewSession(s.config)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.replay = rs
	s.mu.Unlock()
	return nil
}

// summary snapshots the session state.
func (s *session) summary() SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	store := s.replay.Store()
	entries := make([]EntrySummary, 0, store.Len())
	for _, e := range store.Entries() {
		entries = append(entries, EntrySummary{
			Key:           e.Key(),
			Generations:   len(e.Generations()),
			Intermediates: len(e.Intermediates()),
			Cursor:        e.Cursor(),
			Remaining:     e.Remaining(),
		})
	}

	return SessionSummary{
		ID:            s.id,
		TraceFile:     s.config.TraceFile,
		Mode:          string(s.replay.Mode()),
		ExactMatching: s.config.ExactMatching,
		OnExhausted:   string(s.replay.Matcher().Exhaustion()),
		ReplayItems:   s.replay.ReplayItems(),
		CreatedAt:     s.created,
		Entries:       entries,
	}
}
