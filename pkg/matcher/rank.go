package matcher

import (
	"cmp"
	"sort"
	"strings"
)

// Policy selects the total order applied to a MatchBuffer.
type Policy int

const (
	// Alphabetic orders by path only: byte comparison over the shared prefix,
	// and on an equal prefix the shorter path first.
	Alphabetic Policy = iota

	// ScoreThenAlphabetic orders by descending score, breaking exact ties alphabetically.
	ScoreThenAlphabetic
)

func (p Policy) String() string {
	switch p {
	case Alphabetic:
		return "alphabetic"
	case ScoreThenAlphabetic:
		return "score"
	default:
		return "unknown"
	}
}

// PolicyFor picks the ordering for a normalized abbreviation.
// Listing queries ("" and ".") are alphabetic, everything else is score based.
func PolicyFor(abbrev string) Policy {
	if abbrev == "" || abbrev == "." {
		return Alphabetic
	}
	return ScoreThenAlphabetic
}

// Compare returns a negative number when a sorts before b, positive when after, 0 when equal.
func (p Policy) Compare(a, b ScoredMatch) int {
	if p == ScoreThenAlphabetic {
		// higher score first
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
	}
	return compareAlpha(a.Path, b.Path)
}

// compareAlpha compares the shared prefix bytewise; an equal prefix makes the shorter string win.
func compareAlpha(a, b string) int {
	n := min(len(a), len(b))
	if c := strings.Compare(a[:n], b[:n]); c != 0 {
		return c
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Rank sorts buf in place under policy p.
func Rank(buf MatchBuffer, p Policy) {
	sort.Slice(buf, func(i, j int) bool {
		return p.Compare(buf[i], buf[j]) < 0
	})
}
