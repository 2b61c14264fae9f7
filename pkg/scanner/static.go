// Package scanner supplies candidate paths to the matcher.
//
// StaticScanner serves a fixed list, FileScanner walks a directory tree once and
// caches the result in a patricia trie until flushed, and WatchScanner keeps that
// trie current with filesystem notifications.
package scanner

import (
	"bufio"
	"io"
	"strings"
)

// StaticScanner returns the same paths on every call.
type StaticScanner struct {
	paths []string
}

// NewStaticScanner creates a scanner over a copy of paths.
func NewStaticScanner(paths []string) *StaticScanner {
	return &StaticScanner{paths: append([]string(nil), paths...)}
}

// FromReader builds a StaticScanner from newline separated paths, skipping blank lines.
func FromReader(r io.Reader) (*StaticScanner, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return &StaticScanner{paths: paths}, nil
}

// Paths implements matcher.Scanner.
func (s *StaticScanner) Paths() ([]string, error) {
	return s.paths, nil
}
