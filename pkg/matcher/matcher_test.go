package matcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceScanner struct {
	paths []string
	err   error
	calls int
}

func (s *sliceScanner) Paths() ([]string, error) {
	s.calls++
	return s.paths, s.err
}

// substringScorer scores a path by the share of it covered by abbrev.
// "" matches everything with score 1.
var substringScorer = ScorerFunc(func(path, abbrev string, _, _ bool) float64 {
	if abbrev == "" {
		return 1
	}
	if !strings.Contains(strings.ToLower(path), abbrev) {
		return 0
	}
	return float64(len(abbrev)) / float64(len(path))
})

// tableScorer returns fixed scores per path, ignoring the abbreviation.
type tableScorer map[string]float64

func (t tableScorer) Score(path, _ string, _, _ bool) float64 {
	return t[path]
}

func newTestMatcher(t *testing.T, paths []string, scorer Scorer) *Matcher {
	t.Helper()
	m, err := New(&sliceScanner{paths: paths}, scorer, DefaultConfig())
	require.NoError(t, err)
	return m
}

func TestSortedMatchesForExamples(t *testing.T) {
	tests := []struct {
		name   string
		paths  []string
		abbrev string
		limit  int
		want   []string
	}{
		{
			name:   "empty abbrev lists alphabetically",
			paths:  []string{"foo.txt", "bar.txt", "foobar.txt"},
			abbrev: "",
			want:   []string{"bar.txt", "foo.txt", "foobar.txt"},
		},
		{
			name:   "shorter wins on equal prefix",
			paths:  []string{"abc", "ab"},
			abbrev: "",
			want:   []string{"ab", "abc"},
		},
		{
			name:   "limit one",
			paths:  []string{"abc", "ab"},
			abbrev: "",
			limit:  1,
			want:   []string{"ab"},
		},
		{
			name:   "score order",
			paths:  []string{"src/foobar.go", "foo", "lib/foo.go", "zzz"},
			abbrev: "foo",
			want:   []string{"foo", "lib/foo.go", "src/foobar.go"},
		},
		{
			name:   "no matches",
			paths:  []string{"a", "b"},
			abbrev: "zz",
			want:   []string{},
		},
		{
			name:   "empty candidate set",
			paths:  nil,
			abbrev: "x",
			want:   []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMatcher(t, tc.paths, substringScorer)
			got, err := m.SortedMatchesFor(tc.abbrev, QueryOptions{Limit: tc.limit})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDotAbbrevIsAlphabetic(t *testing.T) {
	scores := tableScorer{"b": 9, "a": 1, "c": 5}
	m := newTestMatcher(t, []string{"c", "b", "a"}, scores)

	got, err := m.SortedMatchesFor(".", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got, err = m.SortedMatchesFor("x", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, got)
}

func TestScoreTiesFallBackToAlphabetic(t *testing.T) {
	scores := tableScorer{"b/x": 0.5, "a/x": 0.5, "a/xx": 0.5, "top": 0.9}
	m := newTestMatcher(t, []string{"b/x", "a/xx", "top", "a/x"}, scores)

	got, err := m.SortedMatchesFor("q", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"top", "a/x", "a/xx", "b/x"}, got)
}

func TestNonPositiveScoresNeverReturned(t *testing.T) {
	scores := tableScorer{"zero": 0, "neg": -1, "ok": 0.1}
	m := newTestMatcher(t, []string{"zero", "neg", "ok"}, scores)

	for _, abbrev := range []string{"", ".", "q"} {
		for _, limit := range []int{0, 1, 10} {
			got, err := m.SortedMatchesFor(abbrev, QueryOptions{Limit: limit})
			require.NoError(t, err)
			assert.Equal(t, []string{"ok"}, got, "abbrev=%q limit=%d", abbrev, limit)
		}
	}
}

func TestAbbrevIsLowercased(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	scorer := ScorerFunc(func(path, abbrev string, _, _ bool) float64 {
		mu.Lock()
		seen[abbrev] = true
		mu.Unlock()
		return 1
	})
	m := newTestMatcher(t, []string{"Foo", "bar"}, scorer)

	_, err := m.SortedMatchesFor("FoO", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"foo": true}, seen)
}

func TestDotFilePolicyPassedThrough(t *testing.T) {
	var gotAlways, gotNever bool
	scorer := ScorerFunc(func(_, _ string, always, never bool) float64 {
		gotAlways, gotNever = always, never
		return 1
	})
	cfg := DefaultConfig()
	cfg.AlwaysShowDotFiles = true
	cfg.NeverShowDotFiles = true
	m, err := New(&sliceScanner{paths: []string{"x"}}, scorer, cfg)
	require.NoError(t, err)

	_, err = m.SortedMatchesFor("x", QueryOptions{})
	require.NoError(t, err)
	assert.True(t, gotAlways)
	assert.True(t, gotNever)
}

func TestScannerCalledEveryQuery(t *testing.T) {
	scanner := &sliceScanner{paths: []string{"a"}}
	m, err := New(scanner, substringScorer, DefaultConfig())
	require.NoError(t, err)

	got, err := m.SortedMatchesFor("a", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	scanner.paths = []string{"a", "ab"}
	got, err = m.SortedMatchesFor("a", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ab"}, got)
	assert.Equal(t, 2, scanner.calls)
}

func TestNewRejectsNilCollaborators(t *testing.T) {
	_, err := New(nil, substringScorer, DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "scanner", argErr.Name)

	_, err = New(&sliceScanner{}, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewRejectsTypedNilCollaborators(t *testing.T) {
	var s *sliceScanner
	_, err := New(s, substringScorer, DefaultConfig())
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "scanner", argErr.Name)

	var f ScorerFunc
	_, err = New(&sliceScanner{}, f, DefaultConfig())
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "scorer", argErr.Name)
}

func TestNegativeLimitRejected(t *testing.T) {
	scanner := &sliceScanner{paths: []string{"a"}}
	m, err := New(scanner, substringScorer, DefaultConfig())
	require.NoError(t, err)

	got, err := m.SortedMatchesFor("a", QueryOptions{Limit: -1})
	assert.Nil(t, got)
	assert.True(t, IsInvalidArgument(err))
	assert.Zero(t, scanner.calls, "no work before validation")
}

func TestRequireAbbrev(t *testing.T) {
	_, err := RequireAbbrev(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	s := ""
	got, err := RequireAbbrev(&s)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestScannerErrorPropagates(t *testing.T) {
	boom := errors.New("walk failed")
	m, err := New(&sliceScanner{err: boom}, substringScorer, DefaultConfig())
	require.NoError(t, err)

	got, err := m.SortedMatchesFor("a", QueryOptions{})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
}

func TestScorerPanicFailsWholeCall(t *testing.T) {
	paths := make([]string, 2000)
	for i := range paths {
		paths[i] = fmt.Sprintf("dir/file%04d.go", i)
	}
	scorer := ScorerFunc(func(path, _ string, _, _ bool) float64 {
		if path == "dir/file1501.go" {
			panic("bad path")
		}
		return 1
	})
	m := newTestMatcher(t, paths, scorer)

	got, err := m.SortedMatchesFor("file", QueryOptions{})
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConcurrency)

	var werr *WorkerError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, 1501%DefaultWorkers, werr.Worker)
	assert.Contains(t, werr.Error(), "bad path")
}

func TestLimitLaw(t *testing.T) {
	paths := make([]string, 1500)
	for i := range paths {
		paths[i] = fmt.Sprintf("pkg%d/file%d.go", i%17, i)
	}
	m := newTestMatcher(t, paths, substringScorer)

	full, err := m.SortedMatchesFor("file1", QueryOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, full)

	for _, k := range []int{1, 2, 10, len(full), len(full) + 5} {
		got, err := m.SortedMatchesFor("file1", QueryOptions{Limit: k})
		require.NoError(t, err)
		want := full[:min(k, len(full))]
		assert.Equal(t, want, got, "limit %d", k)
	}
}

func TestDeterministicAcrossCalls(t *testing.T) {
	paths := make([]string, 3000)
	for i := range paths {
		paths[i] = fmt.Sprintf("a/%d/b%d", i%7, i%301)
	}
	m := newTestMatcher(t, paths, substringScorer)

	first, err := m.SortedMatchesFor("b1", QueryOptions{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := m.SortedMatchesFor("b1", QueryOptions{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResultIndependentOfWorkerCount(t *testing.T) {
	paths := make([]string, 5000)
	for i := range paths {
		paths[i] = fmt.Sprintf("src/mod%d/item%d.txt", i%13, i)
	}
	scanner := &sliceScanner{paths: paths}

	results := map[int][]string{}
	for _, workers := range []int{1, 2, 4, 7} {
		m, err := New(scanner, substringScorer, Config{Workers: workers, Threshold: 1})
		require.NoError(t, err)
		got, err := m.SortedMatchesFor("item2", QueryOptions{Limit: 100})
		require.NoError(t, err)
		results[workers] = got
	}
	for _, workers := range []int{2, 4, 7} {
		assert.Equal(t, results[1], results[workers], "workers=%d", workers)
	}
}

func TestOutputIsExactlyThePositiveMatches(t *testing.T) {
	paths := []string{"alpha", "beta", "gamma", "alphabet", "delta"}
	m := newTestMatcher(t, paths, substringScorer)

	got, err := m.SortedMatchesFor("alp", QueryOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "alphabet"}, got)
}

func TestFlush(t *testing.T) {
	m := newTestMatcher(t, []string{"a"}, substringScorer)
	assert.NoError(t, m.Flush())

	f := &flushingScanner{}
	m, err := New(f, substringScorer, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, m.Flush())
	assert.Equal(t, 1, f.flushed)
}

type flushingScanner struct {
	sliceScanner
	flushed int
}

func (f *flushingScanner) Flush() error {
	f.flushed++
	return nil
}

func (f *flushingScanner) Stats() map[string]int {
	return map[string]int{"flushed": f.flushed}
}

func TestStats(t *testing.T) {
	m, err := New(&sliceScanner{}, substringScorer, DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, m.Stats())

	f := &flushingScanner{}
	m, err = New(f, substringScorer, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, m.Flush())
	assert.Equal(t, map[string]int{"flushed": 1}, m.Stats())
}

func BenchmarkSortedMatchesFor(b *testing.B) {
	paths := make([]string, 20000)
	for i := range paths {
		paths[i] = fmt.Sprintf("project/pkg%d/sub%d/file_%d.go", i%50, i%11, i)
	}
	m, err := New(&sliceScanner{paths: paths}, substringScorer, DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		inputs := []string{"file_1", "pkg4", "sub", "", "go"}
		if _, err := m.SortedMatchesFor(inputs[i%len(inputs)], QueryOptions{Limit: 30}); err != nil {
			b.Fatal(err)
		}
	}
}
