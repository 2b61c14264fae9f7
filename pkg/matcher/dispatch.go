package matcher

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultWorkers is the worker count used once the candidate set reaches the threshold.
	DefaultWorkers = 4

	// DefaultThreshold is the candidate count below which scoring runs on a single worker.
	DefaultThreshold = 1000
)

// Dispatcher scores every candidate path into a MatchBuffer, fanning out
// across workers with strided assignment.
type Dispatcher struct {
	scorer    Scorer
	workers   int
	threshold int
	alwaysDot bool
	neverDot  bool
}

// NewDispatcher creates a dispatcher for the given scorer and config.
// Non-positive Workers/Threshold fall back to the package defaults.
func NewDispatcher(scorer Scorer, cfg Config) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Dispatcher{
		scorer:    scorer,
		workers:   workers,
		threshold: threshold,
		alwaysDot: cfg.AlwaysShowDotFiles,
		neverDot:  cfg.NeverShowDotFiles,
	}
}

// WorkerCount returns how many workers score a candidate set of size n.
func (d *Dispatcher) WorkerCount(n int) int {
	if n < d.threshold {
		return 1
	}
	return d.workers
}

// ScoreAll scores paths against the normalized abbreviation.
//
// Worker k writes only indices k, k+W, k+2W, ... so the parallel phase needs no locking.
// The last stripe runs on the calling goroutine; ScoreAll returns only after every
// worker has finished. If any worker fails, no buffer is returned.
func (d *Dispatcher) ScoreAll(paths []string, abbrev string) (MatchBuffer, error) {
	buf, err := newBuffer(len(paths))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	workers := d.WorkerCount(len(paths))

	var g errgroup.Group
	for k := 0; k < workers-1; k++ {
		s := stripe{buf: buf, first: k, step: workers}
		g.Go(func() error {
			return d.run(k, s, paths, abbrev)
		})
	}
	inlineErr := d.run(workers-1, stripe{buf: buf, first: workers - 1, step: workers}, paths, abbrev)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if inlineErr != nil {
		return nil, inlineErr
	}

	log.Debug("scored candidates", "paths", len(paths), "workers", workers, "took", time.Since(start))
	return buf, nil
}

// run scores one stripe. A scorer panic is turned into a *WorkerError.
func (d *Dispatcher) run(worker int, s stripe, paths []string, abbrev string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &WorkerError{Worker: worker, Err: fmt.Errorf("scorer panic: %v", r)}
		}
	}()

	s.indices(func(i int) {
		path := paths[i]
		s.set(i, ScoredMatch{
			Path:  path,
			Score: d.scorer.Score(path, abbrev, d.alwaysDot, d.neverDot),
		})
	})
	return nil
}
