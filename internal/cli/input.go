// Package cli runs an interactive query loop over a matcher for debugging rankings.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bastiangx/pathserve/pkg/matcher"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	indexStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// InputHandler reads abbreviations line by line and prints the ranked paths.
//
// Lines starting with ':' are commands: ":flush" drops the scanner cache,
// ":stats" prints the matcher settings and scanner statistics, ":q" ends the loop.
type InputHandler struct {
	matcher      *matcher.Matcher
	limit        int
	maxQuery     int
	in           io.Reader
	out          io.Writer
	requestCount int
}

// NewInputHandler creates a handler printing at most limit paths per query.
func NewInputHandler(m *matcher.Matcher, limit, maxQuery int, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		matcher:  m,
		limit:    limit,
		maxQuery: maxQuery,
		in:       in,
		out:      out,
	}
}

// Start runs the loop until ":q" or the input ends.
func (h *InputHandler) Start() error {
	fmt.Fprintln(h.out, "pathserve repl: type an abbreviation and press Enter (:q to exit)")
	reader := bufio.NewReader(h.in)

	for {
		fmt.Fprint(h.out, "> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if h.handleCommand(line) {
				return nil
			}
			continue
		}
		h.handleInput(line)
	}
}

// handleCommand runs a ':' command and reports whether the loop should end.
func (h *InputHandler) handleCommand(cmd string) bool {
	switch cmd {
	case ":q", ":quit":
		return true
	case ":flush":
		if err := h.matcher.Flush(); err != nil {
			log.Errorf("Flush failed: %v", err)
			return false
		}
		fmt.Fprintln(h.out, "flushed")
	case ":stats":
		cfg := h.matcher.Config()
		fmt.Fprintf(h.out, "%-10s %d\n%-10s %s\n", "workers", cfg.Workers, "threshold", formatWithCommas(cfg.Threshold))
		fmt.Fprintf(h.out, "%-10s always=%v never=%v\n", "dotfiles", cfg.AlwaysShowDotFiles, cfg.NeverShowDotFiles)
		stats := h.matcher.Stats()
		if len(stats) == 0 {
			fmt.Fprintln(h.out, "no scanner stats")
			return false
		}
		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h.out, "%-10s %s\n", k, formatWithCommas(stats[k]))
		}
	default:
		log.Errorf("Unknown command: %s", cmd)
	}
	return false
}

// handleInput runs a single query and prints its results.
func (h *InputHandler) handleInput(abbrev string) {
	h.requestCount++
	if h.maxQuery > 0 && len(abbrev) > h.maxQuery {
		log.Errorf("Abbreviation too long: %s", abbrev)
		return
	}

	start := time.Now()
	paths, err := h.matcher.SortedMatchesFor(abbrev, matcher.QueryOptions{Limit: h.limit})
	elapsed := time.Since(start)
	if err != nil {
		log.Errorf("Query %q failed: %v", abbrev, err)
		return
	}
	log.Debugf("Took [ %v ] for '%s' (request %d)", elapsed, abbrev, h.requestCount)

	if len(paths) == 0 {
		fmt.Fprintf(h.out, "No matches for '%s'\n", abbrev)
		return
	}
	fmt.Fprintf(h.out, "Found %d matches for '%s':\n", len(paths), abbrev)
	for i, p := range paths {
		fmt.Fprintf(h.out, "%s %s\n", indexStyle.Render(fmt.Sprintf("%3d.", i+1)), pathStyle.Render(p))
	}
}

// formatWithCommas formats an integer with comma separators
func formatWithCommas(n int) string {
	if n < 0 {
		return "-" + formatWithCommas(-n)
	}
	str := fmt.Sprintf("%d", n)
	if n < 1000 {
		return str
	}
	var b strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(char)
	}
	return b.String()
}
