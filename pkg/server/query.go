package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bastiangx/pathserve/pkg/config"
	"github.com/bastiangx/pathserve/pkg/matcher"
)

// querier applies the server limits before handing a query to the matcher.
type querier struct {
	matcher      *matcher.Matcher
	maxLimit     int
	maxQuery     int
	defaultLimit int
}

func newQuerier(m *matcher.Matcher, cfg *config.Config) querier {
	return querier{
		matcher:      m,
		maxLimit:     cfg.Server.MaxLimit,
		maxQuery:     cfg.Server.MaxQuery,
		defaultLimit: cfg.Matcher.DefaultLimit,
	}
}

// match resolves the request limit and runs the query.
// A missing limit uses the default; any limit is capped at maxLimit when one is set.
func (q querier) match(query *string, limit *int) ([]string, time.Duration, error) {
	abbrev, err := matcher.RequireAbbrev(query)
	if err != nil {
		return nil, 0, err
	}
	if q.maxQuery > 0 && len(abbrev) > q.maxQuery {
		return nil, 0, matcher.NewArgumentError("abbrev",
			fmt.Sprintf("exceeds maximum length of %d", q.maxQuery))
	}

	n := q.defaultLimit
	if limit != nil {
		n = *limit
	}
	if n >= 0 && q.maxLimit > 0 && (n == 0 || n > q.maxLimit) {
		n = q.maxLimit
	}

	start := time.Now()
	paths, err := q.matcher.SortedMatchesFor(abbrev, matcher.QueryOptions{Limit: n})
	return paths, time.Since(start), err
}

// statusFor maps a matcher error onto an HTTP status code.
func statusFor(err error) int {
	if errors.Is(err, matcher.ErrInvalidArgument) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
