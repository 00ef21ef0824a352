/*
Package server implements msgpack IPC for kana-kanji conversion.

The server reads a stream of msgpack maps from stdin and writes one msgpack
map per request to stdout. Logs go to stderr. Requests are processed
synchronously in arrival order, and timing is included in conversion
responses.

Conversion requests carry kana (or romaji with "r") and an optional
candidate count:

	{"id": "req_001", "a": "convert", "q": "きのう", "n": 3}
	{"id": "req_002", "a": "convert", "q": "kinou", "r": true}

The server responds with candidates ordered by cost:

	{"id": "req_001", "k": "きのう", "s": [{"w": "昨日", "c": 2500, "t": [...]}, ...], "c": 2, "t": 145}

Entries may be overlaid for one request only:

	{"id": "req_003", "a": "convert", "q": "きのう", "e": [{"reading": "きのう", "surface": "木野", "mode": 4}], "b": true}

Lexicon requests register and remove named user lexicons at runtime:

	{"id": "lex_001", "a": "register", "name": "user", "e": [...]}
	{"id": "lex_002", "a": "unregister", "name": "user"}
	{"id": "lex_003", "a": "lexicons"}

Failed requests are answered with an ErrorResponse whose code is 400 for
malformed requests, 408 for timeouts and 500 for anything else.
*/
package server

import (
	"github.com/bastiangx/henkan/pkg/converter"
	"github.com/bastiangx/henkan/pkg/decoder"
	"github.com/bastiangx/henkan/pkg/lexicon"
)

// Request actions.
const (
	ActionConvert    = "convert"
	ActionRegister   = "register"
	ActionUnregister = "unregister"
	ActionLexicons   = "lexicons"
	ActionInfo       = "info"
	ActionHealth     = "health"
)

// Error codes.
const (
	CodeBadRequest = 400
	CodeTimeout    = 408
	CodeInternal   = 500
)

// Request is the envelope of every client message. Fields unused by the
// action are ignored.
type Request struct {
	ID      string          `msgpack:"id"`
	Action  string          `msgpack:"a"`
	Input   string          `msgpack:"q,omitempty"`
	N       int             `msgpack:"n,omitempty"`
	Romaji  bool            `msgpack:"r,omitempty"`
	Entries []lexicon.Entry `msgpack:"e,omitempty"`
	Builtin *bool           `msgpack:"b,omitempty"`
	Name    string          `msgpack:"name,omitempty"`
}

// Candidate is one ranked conversion.
type Candidate struct {
	Text   string          `msgpack:"w"`
	Cost   int             `msgpack:"c"`
	Tokens []decoder.Token `msgpack:"t,omitempty"`
}

// ConvertResponse answers a convert request.
type ConvertResponse struct {
	ID         string      `msgpack:"id"`
	Kana       string      `msgpack:"k"`
	Candidates []Candidate `msgpack:"s"`
	Count      int         `msgpack:"c"`
	TimeTaken  int64       `msgpack:"t"`
}

// LexiconResponse answers register, unregister and lexicons requests.
type LexiconResponse struct {
	ID      string   `msgpack:"id"`
	Status  string   `msgpack:"status"`
	Names   []string `msgpack:"names,omitempty"`
	Entries int      `msgpack:"entries,omitempty"`
}

// InfoResponse answers an info request.
type InfoResponse struct {
	ID   string         `msgpack:"id"`
	Info converter.Info `msgpack:"info"`
}

// StatusResponse answers health checks and signals readiness.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
