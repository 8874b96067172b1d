// Package replay matches live interactions against a recorded trace.
//
// A Store is built once from a trace and maps each canonical request key to
// the ordered generations of responses recorded for it. A Matcher resolves a
// live request description to one of those entries, exactly when possible and
// by token similarity otherwise, and hands out the entry's next generation.
//
// Store, Entry and Matcher do no locking. Resolving mutates entry cursors, so
// concurrent callers must serialize every lookup on a store.
package replay

import (
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/playback/pkg/trace"
)

const (
	// serverKey is the single key every server-originated request collapses to.
	serverKey = "<-SRV"

	// closingPrefix marks attribute traffic whose argument-less repeats close
	// a nested call span.
	closingPrefix = "<-PYT"
)

// CanonicalKey normalizes a request description for lookup. Server traffic is
// replayed strictly in recorded order regardless of content, so every
// "<-SRV..." description maps to the same key.
func CanonicalKey(desc string) string {
	if strings.HasPrefix(desc, serverKey) {
		return serverKey
	}
	return desc
}

// isArgumented reports whether key describes a call with arguments.
func isArgumented(key string) bool {
	return strings.Contains(key, "(")
}

// isClosing reports whether key closes a nested call span when it recurs.
func isClosing(key string) bool {
	return strings.HasPrefix(key, closingPrefix) && !isArgumented(key)
}

// Store is the parsed response table of one trace.
type Store struct {
	entries map[string]*Entry

	// order lists entries by first occurrence.
	order []*Entry

	// occurrences logs every inbound request in parse order.
	occurrences []*Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Entry),
	}
}

// Parse reads a whole trace from r into a new store.
func Parse(r io.Reader) (*Store, error) {
	chunks, err := trace.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}

	s := NewStore()
	s.AddChunks(chunks)
	return s, nil
}

// LoadFile builds a store from the trace file at path. A missing or
// unreadable file is an error, never an empty store.
func LoadFile(path string) (*Store, error) {
	chunks, err := trace.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s := NewStore()
	s.AddChunks(chunks)
	return s, nil
}

// AddChunks parses chunks into the store, in order.
func (s *Store) AddChunks(chunks []trace.Chunk) {
	var current *Entry
	for _, chunk := range chunks {
		if chunk.IsInbound() {
			current = s.addRequest(strings.TrimSpace(chunk.Text))
			continue
		}

		// Responses before the first request have nowhere to go.
		if current != nil {
			current.addChunk(chunk.Text)
		}
	}
}

func (s *Store) addRequest(desc string) *Entry {
	key := CanonicalKey(desc)

	entry, ok := s.entries[key]
	if !ok {
		entry = newEntry(key)
		s.entries[key] = entry
		s.order = append(s.order, entry)
		s.occurrences = append(s.occurrences, entry)
		return entry
	}

	entry.newGeneration()
	if isClosing(key) {
		entry.addIntermediate(s.intermediatesSince(entry))
	}
	s.occurrences = append(s.occurrences, entry)
	return entry
}

// intermediatesSince walks the occurrence log backward to the previous
// occurrence of entry and returns the distinct argumented entries seen in
// between, in the order they were first seen.
func (s *Store) intermediatesSince(entry *Entry) []*Entry {
	start := len(s.occurrences)
	for i := len(s.occurrences) - 1; i >= 0; i-- {
		if s.occurrences[i] == entry {
			break
		}
		start = i
	}

	seen := make(map[*Entry]bool)
	var between []*Entry
	for _, e := range s.occurrences[start:] {
		if seen[e] || !isArgumented(e.key) {
			continue
		}
		seen[e] = true
		between = append(between, e)
	}
	return between
}

// Get returns the entry stored under the canonical form of key.
func (s *Store) Get(key string) (*Entry, bool) {
	entry, ok := s.entries[CanonicalKey(key)]
	return entry, ok
}

// Len returns the number of distinct request keys.
func (s *Store) Len() int {
	return len(s.order)
}

// Entries returns the entries in first-seen order.
func (s *Store) Entries() []*Entry {
	entries := make([]*Entry, len(s.order))
	copy(entries, s.order)
	return entries
}

// Keys returns the request keys in first-seen order.
func (s *Store) Keys() []string {
	keys := make([]string, len(s.order))
	for i, e := range s.order {
		keys[i] = e.key
	}
	return keys
}
