package scorer

import (
	"math"
	"slices"

	"github.com/sahilm/fuzzy"
)

// SahilmScorer scores paths with github.com/sahilm/fuzzy, which favours
// first-character, camelCase, separator and adjacent matches.
//
// The library's integer score is unbounded in both directions, so it is squashed
// into (0, 1) with a logistic curve; a non-match is 0.
type SahilmScorer struct {
	// Scale controls how quickly raw scores saturate. Defaults to 10.
	Scale float64
}

// NewSahilmScorer creates a new SahilmScorer with the default scale.
func NewSahilmScorer() *SahilmScorer {
	return &SahilmScorer{Scale: 10}
}

// Score implements matcher.Scorer.
func (s SahilmScorer) Score(path, abbrev string, alwaysShowDotFiles, neverShowDotFiles bool) float64 {
	mode := modeFor(alwaysShowDotFiles, neverShowDotFiles)
	dots := dotStarts(path)

	if len(dots) > 0 && mode == dotsHidden {
		return 0
	}
	if abbrev == "" {
		if len(dots) > 0 && mode != dotsShown {
			return 0
		}
		return 1
	}

	matches := fuzzy.Find(abbrev, []string{path})
	if len(matches) == 0 {
		return 0
	}
	m := matches[0]

	if mode == dotsExplicit {
		for _, d := range dots {
			if !slices.Contains(m.MatchedIndexes, d) {
				return 0
			}
		}
	}

	scale := s.Scale
	if scale <= 0 {
		scale = 10
	}
	return 1 / (1 + math.Exp(-float64(m.Score)/scale))
}
