package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

const (
	// DefaultMaxDepth is the directory depth walked when Options.MaxDepth is unset.
	DefaultMaxDepth = 15

	// DefaultMaxFiles caps the listing when Options.MaxFiles is unset.
	DefaultMaxFiles = 30000
)

// DefaultIgnoreDirs are skipped during every walk.
var DefaultIgnoreDirs = []string{"node_modules", "vendor", "__pycache__", "target", "dist", "build"}

var errMaxFiles = errors.New("max files reached")

// Options controls how a FileScanner walks its root.
type Options struct {
	// MaxDepth is the deepest directory level descended into. 0 uses DefaultMaxDepth.
	MaxDepth int

	// MaxFiles stops the walk once this many paths are collected. 0 uses DefaultMaxFiles.
	MaxFiles int

	// ScanDotDirectories descends into directories whose name starts with a dot.
	// Dot files themselves are always listed; the scorer decides whether to show them.
	ScanDotDirectories bool

	// IgnoreDirs are directory names never descended into.
	IgnoreDirs []string
}

// DefaultOptions returns Options with default values.
func DefaultOptions() Options {
	return Options{
		MaxDepth:   DefaultMaxDepth,
		MaxFiles:   DefaultMaxFiles,
		IgnoreDirs: append([]string(nil), DefaultIgnoreDirs...),
	}
}

// FileScanner lists the files below a root directory as slash separated
// relative paths. The first Paths call walks the tree; later calls reuse
// the result until Flush.
type FileScanner struct {
	root      string
	opts      Options
	ignore    map[string]bool
	mu        sync.RWMutex
	trie      *patricia.Trie
	count     int
	scanned   bool
	truncated bool
}

// NewFileScanner creates a scanner rooted at root.
func NewFileScanner(root string, opts Options) (*FileScanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving scan root: %w", err)
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	ignore := make(map[string]bool, len(opts.IgnoreDirs))
	for _, name := range opts.IgnoreDirs {
		ignore[name] = true
	}
	return &FileScanner{
		root:   abs,
		opts:   opts,
		ignore: ignore,
		trie:   patricia.NewTrie(),
	}, nil
}

// Root returns the absolute scan root.
func (s *FileScanner) Root() string {
	return s.root
}

// Paths implements matcher.Scanner.
func (s *FileScanner) Paths() ([]string, error) {
	if err := s.ensureScanned(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, s.count)
	err := s.trie.Visit(func(p patricia.Prefix, _ patricia.Item) error {
		paths = append(paths, string(p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// PathsUnder returns the cached paths that start with prefix.
func (s *FileScanner) PathsUnder(prefix string) ([]string, error) {
	if prefix == "" {
		return s.Paths()
	}
	if err := s.ensureScanned(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []string
	err := s.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, _ patricia.Item) error {
		paths = append(paths, string(p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Under returns a Scanner limited to the paths below dir, sharing this scanner's cache.
// dir is relative to the root; "" or "." selects everything.
func (s *FileScanner) Under(dir string) *ScopedScanner {
	return &ScopedScanner{files: s, flusher: s, prefix: dirPrefix(dir)}
}

// ScopedScanner lists the paths of a FileScanner that start with a directory prefix.
type ScopedScanner struct {
	files   *FileScanner
	flusher interface{ Flush() error }
	prefix  string
}

// Prefix returns the slash terminated directory prefix, or "" for the whole root.
func (s *ScopedScanner) Prefix() string {
	return s.prefix
}

// Paths implements matcher.Scanner.
func (s *ScopedScanner) Paths() ([]string, error) {
	return s.files.PathsUnder(s.prefix)
}

// Flush flushes the underlying scanner.
func (s *ScopedScanner) Flush() error {
	return s.flusher.Flush()
}

// Stats reports the underlying scanner's statistics.
func (s *ScopedScanner) Stats() map[string]int {
	return s.files.Stats()
}

// Flush drops the cached listing; the next Paths call rescans.
func (s *FileScanner) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trie = patricia.NewTrie()
	s.count = 0
	s.scanned = false
	s.truncated = false
	return nil
}

// Stats reports the size of the cached listing.
func (s *FileScanner) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	truncated := 0
	if s.truncated {
		truncated = 1
	}
	return map[string]int{
		"paths":     s.count,
		"maxFiles":  s.opts.MaxFiles,
		"maxDepth":  s.opts.MaxDepth,
		"truncated": truncated,
	}
}

func (s *FileScanner) ensureScanned() error {
	s.mu.RLock()
	scanned := s.scanned
	s.mu.RUnlock()
	if scanned {
		return nil
	}
	return s.rescan(nil)
}

// rescan walks the whole root into a fresh trie. onDir, when set, is called
// for every directory that is descended into.
func (s *FileScanner) rescan(onDir func(abs string)) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan root %s is not a directory", s.root)
	}

	trie := patricia.NewTrie()
	count, truncated, err := s.walk(s.root, trie, onDir)
	if err != nil {
		return err
	}
	if truncated {
		log.Warnf("Stopped scanning %s after %d files (max_files)", s.root, count)
	}
	log.Debugf("Scanned %d paths under %s", count, s.root)

	s.mu.Lock()
	s.trie = trie
	s.count = count
	s.scanned = true
	s.truncated = truncated
	s.mu.Unlock()
	return nil
}

// walk collects files below dir into trie.
func (s *FileScanner) walk(dir string, trie *patricia.Trie, onDir func(abs string)) (int, bool, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, not fatal
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, ok := s.relative(path)
		if !ok {
			return nil
		}

		if d.IsDir() {
			if rel != "" && !s.descend(rel, d.Name()) {
				return filepath.SkipDir
			}
			if onDir != nil {
				onDir(path)
			}
			return nil
		}

		if count >= s.opts.MaxFiles {
			return errMaxFiles
		}
		if trie.Insert(patricia.Prefix(rel), true) {
			count++
		}
		return nil
	})
	if errors.Is(err, errMaxFiles) {
		return count, true, nil
	}
	return count, false, err
}

// descend reports whether the directory at rel (named name) should be walked.
func (s *FileScanner) descend(rel, name string) bool {
	if s.ignore[name] {
		return false
	}
	if strings.HasPrefix(name, ".") && !s.opts.ScanDotDirectories {
		return false
	}
	return depth(rel) <= s.opts.MaxDepth
}

// relative maps an absolute path below the root to its slash separated relative form.
func (s *FileScanner) relative(path string) (string, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// allowed reports whether every directory component of rel would have been walked.
func (s *FileScanner) allowed(rel string) bool {
	parts := strings.Split(rel, "/")
	for i, name := range parts[:len(parts)-1] {
		if !s.descend(strings.Join(parts[:i+1], "/"), name) {
			return false
		}
	}
	return true
}

// add inserts a single file path unless the listing already holds MaxFiles paths.
func (s *FileScanner) add(rel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(patricia.Prefix(rel), true)
}

// insertLocked adds key if it is new and the cap allows it. It reports false once
// the cap is reached. s.mu must be held.
func (s *FileScanner) insertLocked(key patricia.Prefix, item patricia.Item) bool {
	if s.trie.Get(key) != nil {
		return true
	}
	if s.count >= s.opts.MaxFiles {
		if !s.truncated {
			log.Warnf("Listing of %s reached %d files (max_files), ignoring new paths", s.root, s.count)
		}
		s.truncated = true
		return false
	}
	if s.trie.Insert(key, item) {
		s.count++
	}
	return true
}

// addTree walks a newly created directory into the cached listing.
func (s *FileScanner) addTree(abs string, onDir func(abs string)) {
	sub := patricia.NewTrie()
	if _, _, err := s.walk(abs, sub, onDir); err != nil {
		log.Warnf("Failed to scan new directory %s: %v", abs, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = sub.Visit(func(p patricia.Prefix, item patricia.Item) error {
		if !s.insertLocked(p, item) {
			return errMaxFiles
		}
		return nil
	})
}

// remove deletes rel and, if it was a directory, everything below it.
func (s *FileScanner) remove(rel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trie.Delete(patricia.Prefix(rel)) {
		s.count--
	}
	dir := patricia.Prefix(rel + "/")
	n := 0
	_ = s.trie.VisitSubtree(dir, func(patricia.Prefix, patricia.Item) error {
		n++
		return nil
	})
	if n > 0 && s.trie.DeleteSubtree(dir) {
		s.count -= n
	}
}

// dirPrefix turns a relative directory into a trie prefix ending in '/'.
func dirPrefix(dir string) string {
	clean := strings.Trim(filepath.ToSlash(filepath.Clean(dir)), "/")
	if clean == "." || clean == "" {
		return ""
	}
	return clean + "/"
}

func depth(rel string) int {
	if rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}
