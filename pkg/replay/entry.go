package replay

import "fmt"

// Generation is one recorded answer for a request: the raw response chunks
// seen between one occurrence of the request and the next boundary request.
// An empty generation means the request produced no response.
type Generation []string

// Exhaustion decides which generation is replayed once an entry has handed
// out every generation it recorded.
type Exhaustion string

const (
	// ReplayLast keeps replaying the last recorded generation.
	ReplayLast Exhaustion = "last"

	// ReplayFirst starts over at the first recorded generation.
	ReplayFirst Exhaustion = "first"
)

// ParseExhaustion validates a policy name. An empty name means ReplayLast.
func ParseExhaustion(s string) (Exhaustion, error) {
	switch Exhaustion(s) {
	case "", ReplayLast:
		return ReplayLast, nil
	case ReplayFirst:
		return ReplayFirst, nil
	default:
		return "", fmt.Errorf("unknown exhaustion policy %q (available: last, first)", s)
	}
}

// Entry holds every generation recorded for one request key.
type Entry struct {
	key         string
	generations []Generation

	// intermediates[i] holds the argumented calls recorded between occurrence
	// i and occurrence i+1 of a closing key. Entries here are owned by the
	// store, not by this entry.
	intermediates [][]*Entry

	// cursor is the index of the next generation to hand out. It only grows.
	cursor int
}

func newEntry(key string) *Entry {
	return &Entry{
		key:         key,
		generations: []Generation{{}},
	}
}

// Key returns the canonical request key.
func (e *Entry) Key() string {
	return e.key
}

// Generations returns the recorded generations. Callers must not modify them.
func (e *Entry) Generations() []Generation {
	return e.generations
}

// Intermediates returns the intermediate call sets recorded for a closing key.
func (e *Entry) Intermediates() [][]*Entry {
	return e.intermediates
}

// Cursor returns how many generations have been consumed.
func (e *Entry) Cursor() int {
	return e.cursor
}

// Remaining returns the number of generations not yet handed out. It goes
// negative once lookups run past the recorded generations.
func (e *Entry) Remaining() int {
	return len(e.generations) - e.cursor
}

// Chosen reports whether any generation has been consumed.
func (e *Entry) Chosen() bool {
	return e.cursor > 0
}

func (e *Entry) newGeneration() {
	e.generations = append(e.generations, Generation{})
}

func (e *Entry) addChunk(chunk string) {
	last := len(e.generations) - 1
	e.generations[last] = append(e.generations[last], chunk)
}

func (e *Entry) addIntermediate(entries []*Entry) {
	e.intermediates = append(e.intermediates, entries)
}

// allIntermediatesChosen reports whether every call recorded in set i has been
// consumed at least once.
func (e *Entry) allIntermediatesChosen(i int) bool {
	for _, inter := range e.intermediates[i] {
		if !inter.Chosen() {
			return false
		}
	}
	return true
}

// current selects the generation the next lookup should return, and whether
// that lookup should advance the cursor.
func (e *Entry) current(policy Exhaustion) (Generation, bool) {
	if len(e.intermediates) > 0 {
		switch {
		case e.cursor == 0:
			return e.generations[0], true
		case e.cursor-1 >= len(e.intermediates):
			return e.exhausted(policy), true
		case e.allIntermediatesChosen(e.cursor - 1):
			return e.generations[e.cursor], true
		default:
			// Still inside the nested span opened by the previous generation.
			return e.generations[e.cursor-1], false
		}
	}

	if e.cursor < len(e.generations) {
		return e.generations[e.cursor], true
	}
	return e.exhausted(policy), true
}

func (e *Entry) exhausted(policy Exhaustion) Generation {
	if policy == ReplayFirst {
		return e.generations[0]
	}
	return e.generations[len(e.generations)-1]
}

// Peek returns the generation the next lookup would return without
// consuming it.
func (e *Entry) Peek(policy Exhaustion) Generation {
	gen, _ := e.current(policy)
	return gen
}

// Next returns the current generation and advances the cursor when the
// selection rules allow it.
func (e *Entry) Next(policy Exhaustion) Generation {
	gen, advance := e.current(policy)
	if advance {
		e.cursor++
	}
	return gen
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s (%d generations, cursor %d)", e.key, len(e.generations), e.cursor)
}
