package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bastiangx/pathserve/internal/logger"
	"github.com/bastiangx/pathserve/pkg/config"
	"github.com/bastiangx/pathserve/pkg/matcher"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles msgpack IPC for path matching
type Server struct {
	querier
	decoder *msgpack.Decoder
	writer  *bufio.Writer
	encoder *msgpack.Encoder
	log     *log.Logger
}

// NewServer creates a server using stdin/stdout for IPC.
func NewServer(m *matcher.Matcher, cfg *config.Config) *Server {
	return NewServerWithIO(m, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server over arbitrary streams.
func NewServerWithIO(m *matcher.Matcher, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	bw := bufio.NewWriter(w)
	return &Server{
		querier: newQuerier(m, cfg),
		decoder: msgpack.NewDecoder(bufio.NewReader(r)),
		writer:  bw,
		encoder: msgpack.NewEncoder(bw),
		log:     logger.New("ipc"),
	}
}

// Start serves requests until the input stream ends.
// A message that cannot be decoded ends the stream with an error.
func (s *Server) Start() error {
	s.log.Debug("Starting IPC server")
	for {
		var raw msgpack.RawMessage
		if err := s.decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			s.sendError("", "invalid msgpack request", 400)
			return err
		}
		s.handleMessage(raw)
	}
}

// handleMessage routes a single message by its action field.
func (s *Server) handleMessage(raw msgpack.RawMessage) {
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		s.log.Warnf("Malformed request: %v", err)
		s.sendError("", "malformed request", 400)
		return
	}

	if env.Action != "" {
		var req ScanRequest
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.sendError(env.ID, "malformed scan request", 400)
			return
		}
		s.handleScan(req)
		return
	}

	var req MatchRequest
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.sendError(env.ID, "malformed match request", 400)
		return
	}
	s.handleMatch(req)
}

func (s *Server) handleMatch(req MatchRequest) {
	paths, elapsed, err := s.match(req.Query, req.Limit)
	if err != nil {
		s.log.Debugf("Request %s failed: %v", req.ID, err)
		s.sendError(req.ID, err.Error(), statusFor(err))
		return
	}
	s.send(MatchResponse{
		ID:        req.ID,
		Paths:     paths,
		Count:     len(paths),
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleScan(req ScanRequest) {
	switch req.Action {
	case "flush":
		if err := s.matcher.Flush(); err != nil {
			s.log.Errorf("Flush failed: %v", err)
			s.sendError(req.ID, err.Error(), 500)
			return
		}
		s.send(ScanResponse{ID: req.ID, Status: "ok"})
	case "stats":
		s.send(ScanResponse{ID: req.ID, Status: "ok", Stats: s.matcher.Stats()})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

func (s *Server) send(response any) {
	if err := s.encoder.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(MatchError{ID: id, Error: message, Code: code})
}
