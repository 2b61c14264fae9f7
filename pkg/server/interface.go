/*
Package server exposes a matcher.Matcher over msgpack IPC and HTTP.

# IPC

The IPC server reads a stream of msgpack messages from stdin and writes one msgpack
message per request to stdout. Logs go to stderr so they never mix with responses.

Match requests carry the abbreviation and an optional limit:

	{"id": "req_001", "q": "amu", "l": 10}

The server responds with the ranked paths, their count and the time taken in microseconds:

	{"id": "req_001", "p": ["app/models/user.rb", "app/mailers/user.rb"], "c": 2, "t": 310}

A request without "q" is rejected. An empty "q" lists candidates alphabetically.

Scanner requests flush the cached candidate set or report its statistics:

	{"id": "scan_001", "action": "flush"}
	{"id": "scan_002", "action": "stats"}

Any failure is answered with a MatchError carrying an HTTP style code: 400 for invalid
arguments, 500 for everything else.

# HTTP

The HTTP surface serves the same operations with JSON bodies:

	GET  /v1/matches?q=amu&limit=10
	POST /v1/flush
	GET  /v1/stats
	GET  /health

Every response carries an X-Request-ID header.
*/
package server

// MatchRequest asks for the paths matching Query.
type MatchRequest struct {
	ID    string  `msgpack:"id"`
	Query *string `msgpack:"q"`
	Limit *int    `msgpack:"l,omitempty"`
}

// MatchResponse holds the ranked paths for a MatchRequest.
type MatchResponse struct {
	ID        string   `msgpack:"id"`
	Paths     []string `msgpack:"p"`
	Count     int      `msgpack:"c"`
	TimeTaken int64    `msgpack:"t"`
}

// ScanRequest manages the candidate set.
type ScanRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"` // "flush", "stats"
}

// ScanResponse answers a ScanRequest.
type ScanResponse struct {
	ID     string         `msgpack:"id"`
	Status string         `msgpack:"status"`
	Stats  map[string]int `msgpack:"stats,omitempty"`
}

// MatchError holds basic error information for any failed request
type MatchError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// envelope is decoded first to route a message to its handler.
type envelope struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
}
