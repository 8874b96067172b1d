package replay

import (
	"log/slog"

	"github.com/papercomputeco/playback/pkg/logger"
	"github.com/papercomputeco/playback/pkg/response"
)

// Matcher resolves live request descriptions against a Store.
type Matcher struct {
	store      *Store
	exact      bool
	exhaustion Exhaustion
	logger     *slog.Logger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithExactMatching makes every lookup without a literal key fail with a
// MismatchError instead of falling back to the closest recorded request.
func WithExactMatching(exact bool) MatcherOption {
	return func(m *Matcher) {
		m.exact = exact
	}
}

// WithExhaustion sets the generation replayed once an entry is used up.
func WithExhaustion(policy Exhaustion) MatcherOption {
	return func(m *Matcher) {
		m.exhaustion = policy
	}
}

// WithLogger sets the logger used for match diagnostics.
func WithLogger(l *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMatcher creates a Matcher over store.
func NewMatcher(store *Store, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		store:      store,
		exhaustion: ReplayLast,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithGroup("replay")
	return m
}

// Store returns the store the matcher reads from.
func (m *Matcher) Store() *Store {
	return m.store
}

// Exhaustion returns the configured exhaustion policy.
func (m *Matcher) Exhaustion() Exhaustion {
	return m.exhaustion
}

// Lookup finds the entry that should answer desc. With exactOnly set only a
// literal key hit counts and a miss returns nil without error. Otherwise a
// miss falls back to the best fuzzy match, or fails with a MismatchError when
// the matcher enforces exact matching.
func (m *Matcher) Lookup(desc string, exactOnly bool) (*Entry, error) {
	key := CanonicalKey(desc)
	m.logger.Debug("trying to match", "description", key)

	if entry, ok := m.store.entries[key]; ok {
		m.logger.Debug("found exact match")
		return entry, nil
	}

	if exactOnly {
		return nil, nil
	}

	if m.exact {
		return nil, &MismatchError{Description: key}
	}

	entry, _ := m.BestMatch(key)
	return entry, nil
}

// BestMatch returns the recorded entry most similar to desc among entries of
// the same traffic category, with its score. It returns nil when the store is
// empty or no candidate shares a token with desc.
func (m *Matcher) BestMatch(desc string) (*Entry, Score) {
	desc = CanonicalKey(desc)
	query := Tokenize(desc)
	queryCategory := category(desc)

	var best *Entry
	bestScore := baselineScore()
	for _, entry := range m.store.order {
		if category(entry.key) != queryCategory {
			continue
		}

		score := ScoreTokens(Tokenize(entry.key), query, entry.Remaining())
		m.logger.Debug("comparing candidate",
			"candidate", entry.key,
			"common", score.Common,
			"gaps", score.Gaps,
			"remaining", score.Remaining,
		)

		if score.Beats(bestScore) {
			best = entry
			bestScore = score
		}
	}

	if best != nil {
		m.logger.Debug("best match chosen", "candidate", best.key)
	}
	return best, bestScore
}

// Next resolves desc and consumes the matched entry's current generation. It
// returns nil when nothing matched.
func (m *Matcher) Next(desc string, exactOnly bool) (Generation, *Entry, error) {
	entry, err := m.Lookup(desc, exactOnly)
	if err != nil || entry == nil {
		return nil, nil, err
	}
	return entry.Next(m.exhaustion), entry, nil
}

// Resolve looks up desc and materializes the matched generation with reg.
// Chunks whose type code reg does not know are dropped.
func (m *Matcher) Resolve(desc string, reg *response.Registry) ([]response.Response, error) {
	return m.resolve(desc, false, reg)
}

// ResolveExact is Resolve restricted to literal key hits. A miss is not an
// error and yields no responses.
func (m *Matcher) ResolveExact(desc string, reg *response.Registry) ([]response.Response, error) {
	return m.resolve(desc, true, reg)
}

// NextResponses resolves desc and materializes the matched entry's current
// generation with reg. The generation is consumed only when every chunk
// decodes; on a DecodeError the entry and raw generation are still returned
// and the cursor is left where it was.
func (m *Matcher) NextResponses(desc string, exactOnly bool, reg *response.Registry) (Generation, []response.Response, *Entry, error) {
	entry, err := m.Lookup(desc, exactOnly)
	if err != nil || entry == nil {
		return nil, nil, nil, err
	}

	gen := entry.Peek(m.exhaustion)
	responses, err := reg.BuildAll(gen)
	if err != nil {
		return gen, nil, entry, err
	}

	entry.Next(m.exhaustion)
	return gen, responses, entry, nil
}

func (m *Matcher) resolve(desc string, exactOnly bool, reg *response.Registry) ([]response.Response, error) {
	_, responses, _, err := m.NextResponses(desc, exactOnly, reg)
	return responses, err
}
