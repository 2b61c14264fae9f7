/*
Package matcher ranks candidate file paths against a typed abbreviation.

A Matcher pulls the current path set from a Scanner on every call, scores each path
with a Scorer, orders the results and returns the matching paths best-first.

# Pipeline

	paths   := scanner.Paths()
	buffer  := dispatcher.ScoreAll(paths, abbrev)   // parallel, strided
	Rank(buffer, PolicyFor(abbrev))                 // in place
	results := Collect(buffer, limit)               // score > 0, capped

Scoring fans out to Config.Workers goroutines (4 by default) once the candidate set
reaches Config.Threshold paths (1000 by default). Worker k owns buffer slots k, k+W,
k+2W, ... so the only shared structure is written without locks. The call joins every
worker before ranking; a failed worker fails the whole call.

# Ordering

An empty abbreviation or a lone "." lists paths alphabetically. Any other abbreviation
orders by descending score, with exact ties broken alphabetically, so repeated calls
over an unchanged candidate set return identical results.

# Usage

	m, err := matcher.New(scanner, scorer.NewPathScorer(), matcher.DefaultConfig())
	if err != nil {
		return err
	}
	paths, err := m.SortedMatchesFor("mtch", matcher.QueryOptions{Limit: 20})
*/
package matcher

import (
	"fmt"
	"reflect"
	"strings"
)

// Scanner supplies the candidate paths. Paths is called once per query.
type Scanner interface {
	Paths() ([]string, error)
}

// Flusher is implemented by scanners that cache their path set and can drop it.
type Flusher interface {
	Flush() error
}

// StatsReporter is implemented by scanners that can describe their candidate set.
type StatsReporter interface {
	Stats() map[string]int
}

// Scorer computes the relevance of path for a lowercased abbreviation.
// A score of 0 means no match. Score is called concurrently from several
// workers and must not share mutable state between calls.
type Scorer interface {
	Score(path, abbrev string, alwaysShowDotFiles, neverShowDotFiles bool) float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(path, abbrev string, alwaysShowDotFiles, neverShowDotFiles bool) float64

func (f ScorerFunc) Score(path, abbrev string, alwaysShowDotFiles, neverShowDotFiles bool) float64 {
	return f(path, abbrev, alwaysShowDotFiles, neverShowDotFiles)
}

// Config is fixed when the Matcher is built.
type Config struct {
	// AlwaysShowDotFiles and NeverShowDotFiles are handed to the Scorer untouched.
	AlwaysShowDotFiles bool
	NeverShowDotFiles  bool

	// Workers is the fan-out used for large candidate sets.
	Workers int

	// Threshold is the candidate count at which scoring goes parallel.
	Threshold int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Workers:   DefaultWorkers,
		Threshold: DefaultThreshold,
	}
}

// QueryOptions are per-call settings.
type QueryOptions struct {
	// Limit caps the number of returned paths. 0 means no cap.
	Limit int
}

// Matcher is the entry point for ranked path queries. It is safe for concurrent use
// as long as its Scanner is.
type Matcher struct {
	scanner    Scanner
	config     Config
	dispatcher *Dispatcher
}

// New creates a Matcher over scanner and scorer. A nil collaborator, including
// a typed nil such as (*scanner.FileScanner)(nil), is an invalid argument.
func New(scanner Scanner, scorer Scorer, cfg Config) (*Matcher, error) {
	if isNil(scanner) {
		return nil, NewArgumentError("scanner", "nil scanner")
	}
	if isNil(scorer) {
		return nil, NewArgumentError("scorer", "nil scorer")
	}
	return &Matcher{
		scanner:    scanner,
		config:     cfg,
		dispatcher: NewDispatcher(scorer, cfg),
	}, nil
}

// isNil reports whether v is nil or an interface holding a nil pointer, map, slice or func.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Config returns the configuration the Matcher was built with.
func (m *Matcher) Config() Config {
	return m.config
}

// SortedMatchesFor returns the candidate paths matching abbrev, best match first.
// The abbreviation is matched case-insensitively. On error no paths are returned.
func (m *Matcher) SortedMatchesFor(abbrev string, opts QueryOptions) ([]string, error) {
	if opts.Limit < 0 {
		return nil, NewArgumentError("limit", fmt.Sprintf("must not be negative, got %d", opts.Limit))
	}
	abbrev = strings.ToLower(abbrev)

	paths, err := m.scanner.Paths()
	if err != nil {
		return nil, fmt.Errorf("scanning candidates: %w", err)
	}

	buf, err := m.dispatcher.ScoreAll(paths, abbrev)
	if err != nil {
		return nil, err
	}
	Rank(buf, PolicyFor(abbrev))
	return Collect(buf, opts.Limit), nil
}

// Flush drops the scanner's cached path set, if it keeps one.
func (m *Matcher) Flush() error {
	if f, ok := m.scanner.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Stats returns the scanner's statistics, or nil if it keeps none.
func (m *Matcher) Stats() map[string]int {
	if r, ok := m.scanner.(StatsReporter); ok {
		return r.Stats()
	}
	return nil
}

// RequireAbbrev unwraps an optional abbreviation taken from a request,
// rejecting an absent one.
func RequireAbbrev(abbrev *string) (string, error) {
	if abbrev == nil {
		return "", NewArgumentError("abbrev", "nil abbrev")
	}
	return *abbrev, nil
}
