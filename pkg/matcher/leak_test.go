package matcher

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var leakQueries = []string{"", ".", "a", "ab", "abc", "file", "dir/f", "zzz"}

func TestNoGoroutineLeak(t *testing.T) {
	paths := make([]string, 5000)
	for i := range paths {
		paths[i] = fmt.Sprintf("dir%d/file%d.go", i%31, i)
	}
	m := newTestMatcher(t, paths, substringScorer)

	runtime.GC()
	baseline := runtime.NumGoroutine()

	for i := 0; i < 200; i++ {
		_, err := m.SortedMatchesFor(leakQueries[i%len(leakQueries)], QueryOptions{Limit: 10})
		require.NoError(t, err)
	}

	// errgroup goroutines exit before Wait returns, allow a moment for the runtime to reap them
	time.Sleep(10 * time.Millisecond)
	delta := runtime.NumGoroutine() - baseline
	t.Logf("goroutine_delta=%d", delta)
	assert.LessOrEqual(t, delta, 2, "goroutine leak detected")
}

func TestNoGoroutineLeakOnWorkerFailure(t *testing.T) {
	paths := make([]string, 4000)
	for i := range paths {
		paths[i] = fmt.Sprintf("f%d", i)
	}
	m := newTestMatcher(t, paths, ScorerFunc(func(path, _ string, _, _ bool) float64 {
		if path == "f10" {
			panic("fail")
		}
		return 1
	}))

	runtime.GC()
	baseline := runtime.NumGoroutine()

	for i := 0; i < 50; i++ {
		_, err := m.SortedMatchesFor("f", QueryOptions{})
		require.ErrorIs(t, err, ErrConcurrency)
	}

	time.Sleep(10 * time.Millisecond)
	assert.LessOrEqual(t, runtime.NumGoroutine()-baseline, 2)
}
