package replay

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// separators is the tokenizer cascade. The order decides how compound tokens
// break apart and therefore how much credit partial overlaps get.
var separators = []string{"/", "(", ")", "\\"}

// unmatchedBaseline is the remaining-generation count of the score every
// candidate has to beat.
const unmatchedBaseline = 100000

// Tokenize splits a request description into words: on "/", then each piece
// on "(", then ")", then "\", and finally on whitespace.
func Tokenize(desc string) []string {
	words := []string{desc}
	for _, sep := range separators {
		var next []string
		for _, w := range words {
			next = append(next, strings.Split(w, sep)...)
		}
		words = next
	}

	var tokens []string
	for _, w := range words {
		tokens = append(tokens, strings.Fields(w)...)
	}
	return tokens
}

// category returns the traffic type code of a description ("CMD" in
// "<-CMD:ls").
func category(desc string) string {
	if len(desc) < 5 {
		return desc
	}
	return desc[2:5]
}

// Score ranks a candidate key against a query.
type Score struct {
	// Common is the number of query tokens covered by matching blocks.
	Common int `json:"common"`

	// Gaps is the number of non-matching stretches between blocks.
	Gaps int `json:"gaps"`

	// Remaining is the number of generations the candidate has left.
	Remaining int `json:"remaining"`
}

func baselineScore() Score {
	return Score{Remaining: unmatchedBaseline}
}

// ScoreTokens compares candidate tokens with query tokens using ordered
// matching blocks.
func ScoreTokens(candidate, query []string, remaining int) Score {
	blocks := difflib.NewMatcher(candidate, query).GetMatchingBlocks()

	common := 0
	for _, b := range blocks {
		common += b.Size
	}

	return Score{
		Common:    common,
		Gaps:      gapCount(blocks),
		Remaining: remaining,
	}
}

// gapCount counts non-matching stretches. blocks always ends with the
// zero-size sentinel; a final block running straight into it means the two
// sequences end together and that stretch is not counted.
func gapCount(blocks []difflib.Match) int {
	n := len(blocks)
	if n > 1 && reachesEnd(blocks[n-2], blocks[n-1]) {
		return n - 2
	}
	return n - 1
}

func reachesEnd(last, sentinel difflib.Match) bool {
	return last.A+last.Size == sentinel.A && last.B+last.Size == sentinel.B
}

// Beats reports whether s is a strictly better match than other: more common
// tokens, then fewer gaps, then more generations left.
func (s Score) Beats(other Score) bool {
	if s.Common != other.Common {
		return s.Common > other.Common
	}
	if s.Gaps != other.Gaps {
		return s.Gaps < other.Gaps
	}
	return s.Remaining > other.Remaining
}
