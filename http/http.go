// Package http parses HTTP/1.1 request framing into typed values.
// It is the trust boundary of the repository: attacker-controlled bytes go
// in, a typed Request or a typed error comes out. Nothing in here panics on
// malformed input.
package http

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

const (
	CR byte = '\r'
	LF byte = '\n'
	SP byte = ' '
)

type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodPatch   Method = "PATCH"
)

var methods = map[string]Method{
	"GET":     MethodGet,
	"HEAD":    MethodHead,
	"POST":    MethodPost,
	"PUT":     MethodPut,
	"DELETE":  MethodDelete,
	"CONNECT": MethodConnect,
	"OPTIONS": MethodOptions,
	"TRACE":   MethodTrace,
	"PATCH":   MethodPatch,
}

var ErrUnknownMethod = errors.New("unknown method")

// ParseMethod matches token case-insensitively against the known methods.
// An unrecognized token is an error, never an aliased default.
func ParseMethod(token string) (Method, error) {
	m, ok := methods[strings.ToUpper(token)]
	if !ok {
		return "", ErrUnknownMethod
	}

	return m, nil
}

type RequestLine struct {
	Method Method
	Target string
}

// parseRequestLine tokenizes a request line on runs of whitespace. The first
// token is the method, the second is the target. A third token (protocol
// version) may be present on the wire but is not part of this parser's
// contract, so it is ignored.
func parseRequestLine(line []byte) (RequestLine, error) {
	parts := bytes.Fields(line)
	if len(parts) == 0 {
		return RequestLine{}, errors.New("request line has no method token")
	}

	method, err := ParseMethod(string(parts[0]))
	if err != nil {
		return RequestLine{}, err
	}

	// A line holding only a method is otherwise well-formed.
	target := "/"
	if len(parts) > 1 {
		target = string(parts[1])
	}

	return RequestLine{Method: method, Target: target}, nil
}

var fieldSep = []byte(": ")

type Field struct{ Name, Value string }

// ParseField splits a field line on the first ": ". Name and value are taken
// verbatim; no whitespace trimming or case normalization happens here.
func ParseField(fieldLine []byte) (Field, error) {
	name, value, found := bytes.Cut(fieldLine, fieldSep)
	if !found {
		return Field{}, errors.Errorf("field separator not found on header: %q", string(fieldLine))
	}

	return Field{Name: string(name), Value: string(value)}, nil
}

func (f Field) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(f.Name)
	buf.Write(fieldSep)
	buf.WriteString(f.Value)
	return buf.Bytes()
}

// Headers is an immutable name-to-value mapping. Names keep the exact case
// they had on the wire, and lookups are case-sensitive.
type Headers struct{ underlying map[string]string }

// HeadersFrom builds the mapping from raw fields.
// When a name repeats, the last field wins.
func HeadersFrom(fields []Field) Headers {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Name] = f.Value
	}

	return Headers{underlying: m}
}

func (h Headers) Get(name string) (value string, ok bool) {
	value, ok = h.underlying[name]
	return
}

func (h Headers) Len() int { return len(h.underlying) }

// Fields returns a copy of the mapping.
func (h Headers) Fields() map[string]string {
	clone := make(map[string]string, len(h.underlying))
	for k, v := range h.underlying {
		clone[k] = v
	}

	return clone
}

// Request is the parse result. It is constructed once per connection and has
// no mutation API afterwards.
type Request struct {
	RequestLine
	Headers Headers

	Body []byte
}
