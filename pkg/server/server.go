package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/henkan/internal/logger"
	"github.com/bastiangx/henkan/pkg/config"
	"github.com/bastiangx/henkan/pkg/converter"
	"github.com/bastiangx/henkan/pkg/decoder"
	"github.com/bastiangx/henkan/pkg/lexicon"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the IPC for conversions.
type Server struct {
	conv   *converter.Converter
	config *config.Config
	reader io.Reader
	writer *bufio.Writer
	enc    *msgpack.Encoder
	log    *log.Logger

	requestCount int
}

// NewServer creates a server using stdin/stdout for IPC.
func NewServer(conv *converter.Converter, cfg *config.Config) *Server {
	return NewServerWithIO(conv, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server over arbitrary streams.
func NewServerWithIO(conv *converter.Converter, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	bw := bufio.NewWriter(w)
	return &Server{
		conv:   conv,
		config: cfg,
		reader: r,
		writer: bw,
		enc:    msgpack.NewEncoder(bw),
		log:    logger.New("server"),
	}
}

// Start announces readiness and serves requests until the input ends or
// ctx is cancelled. A truncated request ends the stream with an error.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting server")
	s.send(StatusResponse{Status: "ready"})

	dec := msgpack.NewDecoder(bufio.NewReader(s.reader))
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		var raw msgpack.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debugf("Input closed after %d requests", s.requestCount)
				return nil
			}
			return fmt.Errorf("reading request: %w", err)
		}
		s.handle(ctx, raw)
	}
}

// handle decodes one request and dispatches it by action.
func (s *Server) handle(ctx context.Context, raw msgpack.RawMessage) {
	s.requestCount++

	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.log.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "invalid msgpack request", CodeBadRequest)
		return
	}

	switch req.Action {
	case ActionConvert, "":
		s.handleConvert(ctx, req)
	case ActionRegister:
		s.handleRegister(req)
	case ActionUnregister:
		s.handleUnregister(req)
	case ActionLexicons:
		s.send(LexiconResponse{ID: req.ID, Status: "ok", Names: s.conv.Lexicons().Names()})
	case ActionInfo:
		s.send(InfoResponse{ID: req.ID, Info: s.conv.Info()})
	case ActionHealth:
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), CodeBadRequest)
	}
}

func (s *Server) handleConvert(ctx context.Context, req Request) {
	if req.Input == "" {
		s.sendError(req.ID, "missing 'q' parameter", CodeBadRequest)
		return
	}
	if limit := s.config.Server.MaxInput; limit > 0 && utf8.RuneCountInString(req.Input) > limit {
		s.sendError(req.ID, fmt.Sprintf("input exceeds maximum length of %d characters", limit), CodeBadRequest)
		return
	}
	if req.Romaji && len(req.Entries) > 0 {
		s.sendError(req.ID, "per-request entries require kana input", CodeBadRequest)
		return
	}

	n := req.N
	if n <= 0 {
		n = s.config.Server.DefaultNBest
	}
	if limit := s.config.Server.MaxNBest; limit > 0 {
		n = min(n, limit)
	}

	start := time.Now()
	var result *converter.Result
	var err error
	switch {
	case req.Romaji:
		result, err = s.conv.ConvertRomaji(ctx, req.Input, n)
	case len(req.Entries) > 0 || req.Builtin != nil:
		builtin := req.Builtin == nil || *req.Builtin
		result, err = s.conv.ConvertWithUserEntries(ctx, req.Input, req.Entries, builtin, n)
	default:
		result, err = s.conv.Convert(ctx, req.Input, n)
	}
	elapsed := time.Since(start)
	if err != nil {
		s.sendConvertError(req.ID, err)
		return
	}

	s.log.Debugf("Converted %q in %v (%d candidates)", req.Input, elapsed, len(result.Candidates))
	s.send(ConvertResponse{
		ID:         req.ID,
		Kana:       result.Kana,
		Candidates: toCandidates(result.Candidates),
		Count:      len(result.Candidates),
		TimeTaken:  elapsed.Microseconds(),
	})
}

func (s *Server) sendConvertError(id string, err error) {
	switch {
	case errors.Is(err, converter.ErrTimeout):
		s.sendError(id, "conversion timed out", CodeTimeout)
	case errors.Is(err, lexicon.ErrEmptyReading):
		s.sendError(id, err.Error(), CodeBadRequest)
	default:
		s.log.Errorf("Conversion failed: %v", err)
		s.sendError(id, "internal error", CodeInternal)
	}
}

func (s *Server) handleRegister(req Request) {
	if req.Name == "" {
		s.sendError(req.ID, "missing 'name' parameter", CodeBadRequest)
		return
	}
	lex := s.conv.NewLexicon()
	if err := lex.AddAll(req.Entries); err != nil {
		s.sendError(req.ID, err.Error(), CodeBadRequest)
		return
	}
	s.conv.Register(req.Name, lex)
	s.send(LexiconResponse{
		ID:      req.ID,
		Status:  "ok",
		Names:   s.conv.Lexicons().Names(),
		Entries: lex.Len(),
	})
}

func (s *Server) handleUnregister(req Request) {
	if !s.conv.Unregister(req.Name) {
		s.sendError(req.ID, fmt.Sprintf("unknown lexicon: %q", req.Name), CodeBadRequest)
		return
	}
	s.send(LexiconResponse{ID: req.ID, Status: "ok", Names: s.conv.Lexicons().Names()})
}

func toCandidates(in []decoder.Candidate) []Candidate {
	out := make([]Candidate, len(in))
	for i, c := range in {
		out[i] = Candidate{Text: c.Text, Cost: c.Cost, Tokens: c.Tokens}
	}
	return out
}

// send encodes one response and flushes it.
func (s *Server) send(response any) {
	if err := s.enc.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
