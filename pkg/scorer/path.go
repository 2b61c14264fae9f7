// Package scorer provides the abbreviation scorers used by the matcher package.
package scorer

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Boundary factors applied when a matched character does not directly follow the previous match.
const (
	afterSlashFactor     = 0.9
	afterSeparatorFactor = 0.8
	camelCaseFactor      = 0.8
	afterDotFactor       = 0.7
	gapFactor            = 0.75
)

var invalid = math.Inf(-1)

// PathScorer scores paths by how well an abbreviation's characters line up
// with word boundaries in the path.
//
// Every abbreviation character must appear in the path, in order. Each matched
// character contributes at most (1/len(path) + 1/len(abbrev)) / 2, discounted
// when it is separated from the previous match, so the best possible score is 1.
//
// Paths are case-folded with strings.ToLower, the same folding the matcher applies
// to the abbreviation. A path whose lowercase form changes byte length (a few
// non-Latin scripts) falls back to ASCII-only folding.
type PathScorer struct{}

// NewPathScorer creates a new PathScorer
func NewPathScorer() *PathScorer {
	return &PathScorer{}
}

// Score implements matcher.Scorer. abbrev is expected in lowercase.
func (PathScorer) Score(path, abbrev string, alwaysShowDotFiles, neverShowDotFiles bool) float64 {
	mode := modeFor(alwaysShowDotFiles, neverShowDotFiles)

	if abbrev == "" {
		if mode != dotsShown && HasDotFile(path) {
			return 0
		}
		return 1
	}
	if mode == dotsHidden && HasDotFile(path) {
		return 0
	}
	folded := foldCase(path)
	if !isSubsequence(folded, abbrev) {
		return 0
	}

	s := newSearch(path, folded, abbrev, mode == dotsExplicit)
	score := s.best(0, -1)
	if score <= 0 || math.IsInf(score, -1) {
		return 0
	}
	return score
}

// search is the per-call state of the best-alignment search.
type search struct {
	haystack   string
	folded     string // haystack lowercased, byte-aligned with it
	needle     string
	perChar    float64
	gateDots   bool
	nextDot    []int // nextDot[i] is the first dot-component start >= i, or len(haystack)
	memo       []float64
	memoStride int
}

func newSearch(haystack, folded, needle string, gateDots bool) *search {
	s := &search{
		haystack:   haystack,
		folded:     folded,
		needle:     needle,
		perChar:    (1/float64(len(haystack)) + 1/float64(len(needle))) / 2,
		gateDots:   gateDots,
		memoStride: len(haystack) + 1,
	}

	if gateDots {
		s.nextDot = make([]int, len(haystack)+1)
		s.nextDot[len(haystack)] = len(haystack)
		for i := len(haystack) - 1; i >= 0; i-- {
			if haystack[i] == '.' && (i == 0 || haystack[i-1] == '/') {
				s.nextDot[i] = i
			} else {
				s.nextDot[i] = s.nextDot[i+1]
			}
		}
	}

	s.memo = make([]float64, len(needle)*s.memoStride)
	for i := range s.memo {
		s.memo[i] = math.NaN()
	}
	return s
}

// best returns the highest score for matching needle[n:] strictly after haystack index prev.
func (s *search) best(n, prev int) float64 {
	if n == len(s.needle) {
		if s.skipsDot(prev, len(s.haystack)) {
			return invalid
		}
		return 0
	}

	key := n*s.memoStride + prev + 1
	if v := s.memo[key]; !math.IsNaN(v) {
		return v
	}

	result := invalid
	c := s.needle[n]
	// leave room for the rest of the needle
	last := len(s.haystack) - (len(s.needle) - n)
	for j := prev + 1; j <= last; j++ {
		if s.skipsDot(prev, j) {
			break
		}
		if lower(s.folded[j]) != c {
			continue
		}
		rest := s.best(n+1, j)
		if math.IsInf(rest, -1) {
			continue
		}
		if total := s.charScore(j, prev) + rest; total > result {
			result = total
		}
	}

	s.memo[key] = result
	return result
}

// skipsDot reports whether a dot-component start lies strictly between prev and j.
func (s *search) skipsDot(prev, j int) bool {
	if !s.gateDots {
		return false
	}
	return s.nextDot[prev+1] < j
}

func (s *search) charScore(j, prev int) float64 {
	score := s.perChar
	distance := j - prev
	if distance <= 1 {
		return score
	}

	last, curr := s.haystack[j-1], s.haystack[j]
	switch {
	case last == '/':
		return score * afterSlashFactor
	case last == '-' || last == '_' || last == ' ' || isDigit(last):
		return score * afterSeparatorFactor
	case isLower(last) && isUpper(curr):
		return score * camelCaseFactor
	case last == '.':
		return score * afterDotFactor
	default:
		return score * (1 / float64(distance)) * gapFactor
	}
}

// isSubsequence is the cheap rejection test run before any allocation.
func isSubsequence(haystack, needle string) bool {
	n := 0
	for i := 0; i < len(haystack) && n < len(needle); i++ {
		if lower(haystack[i]) == needle[n] {
			n++
		}
	}
	return n == len(needle)
}

// foldCase lowercases path when that keeps every byte offset intact.
func foldCase(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] >= utf8.RuneSelf {
			if folded := strings.ToLower(path); len(folded) == len(path) {
				return folded
			}
			return path
		}
	}
	return path
}

func lower(b byte) byte {
	if isUpper(b) {
		return b + 'a' - 'A'
	}
	return b
}

func isUpper(b byte) bool { return 'A' <= b && b <= 'Z' }
func isLower(b byte) bool { return 'a' <= b && b <= 'z' }
func isDigit(b byte) bool { return '0' <= b && b <= '9' }
