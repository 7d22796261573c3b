package http

import (
	"io"
	"strconv"

	iolib "httpwire/lib/io"

	"github.com/pkg/errors"
)

var (
	// ErrMissingStartLine is returned when the stream ends or the read fails
	// before any start line was obtained.
	ErrMissingStartLine = errors.New("stream ended before a start line")
	// ErrMalformedStartLine is returned when the start line has no method
	// token.
	ErrMalformedStartLine = errors.New("start line is malformed")
	// ErrMalformedHeader is returned when a header line lacks the ": "
	// separator. The whole parse aborts; partial header maps are never
	// returned.
	ErrMalformedHeader = errors.New("header line is malformed")
	// ErrMissingHeaderTerminator is returned when the stream ends before the
	// blank line ending the header block.
	ErrMissingHeaderTerminator = errors.New("header block is unterminated")
	// ErrTruncatedBody is returned when fewer bytes are available than the
	// declared content length.
	ErrTruncatedBody = errors.New("body is shorter than declared content length")
)

// parseError ties a failure variant to its underlying cause.
// errors.Is matches the variant, and the cause stays reachable via Unwrap,
// so a caller can still see e.g. a deadline expiry behind
// [ErrMissingStartLine].
type parseError struct {
	variant error
	cause   error
}

func wrapParseErr(variant, cause error) error {
	if cause == nil {
		return variant
	}
	return &parseError{variant: variant, cause: cause}
}

func (e *parseError) Error() string {
	return e.variant.Error() + ": " + e.cause.Error()
}

func (e *parseError) Is(target error) bool { return target == e.variant }
func (e *parseError) Unwrap() error        { return e.cause }

// RequestDecoder reads one HTTP/1.1 request off a byte stream.
// It holds no state between requests: every Decode is a pure function of the
// stream it was given, so independent decoders on independent streams need no
// locking. The stream itself must not be shared across goroutines.
type RequestDecoder struct {
	r *iolib.UntilReader
}

func NewRequestDecoder(r io.Reader) *RequestDecoder {
	return &RequestDecoder{r: iolib.NewUntilReader(r)}
}

// r MUST be a non-nil pointer.
func (rd *RequestDecoder) Decode(r *Request) error {
	if err := rd.decodeRequestLine(&r.RequestLine); err != nil {
		return errors.Wrap(err, "parsing request line")
	}

	fields, err := rd.decodeHeaders()
	if err != nil {
		return errors.Wrap(err, "parsing headers")
	}
	r.Headers = HeadersFrom(fields)

	if err := rd.decodeBody(r.Headers, &r.Body); err != nil {
		return errors.Wrap(err, "reading body")
	}

	return nil
}

// readLine reads one line, stripping the LF terminator and an optional CR
// before it. Clients sending CRLF and clients sending sole LF both parse.
func (rd *RequestDecoder) readLine() ([]byte, error) {
	b, err := rd.r.ReadUntil(LF)
	if err != nil {
		return nil, err
	}

	b = b[:len(b)-1]
	if n := len(b); n > 0 && b[n-1] == CR {
		b = b[:n-1]
	}

	return b, nil
}

func (rd *RequestDecoder) decodeRequestLine(reqLine *RequestLine) error {
	line, err := rd.readLine()
	if err != nil {
		return wrapParseErr(ErrMissingStartLine, err)
	}

	parsed, err := parseRequestLine(line)
	if err != nil {
		if errors.Is(err, ErrUnknownMethod) {
			return err
		}
		return ErrMalformedStartLine
	}

	*reqLine = parsed

	return nil
}

func (rd *RequestDecoder) decodeHeaders() ([]Field, error) {
	fields := make([]Field, 0)
	for {
		line, err := rd.readLine()
		if err != nil {
			return nil, wrapParseErr(ErrMissingHeaderTerminator, err)
		}

		if len(line) == 0 {
			// An empty line. The header block is complete.
			return fields, nil
		}

		field, err := ParseField(line)
		if err != nil {
			return nil, ErrMalformedHeader
		}

		fields = append(fields, field)
	}
}

func (rd *RequestDecoder) decodeBody(headers Headers, body *[]byte) error {
	b, err := rd.r.ReadFull(contentLength(headers))
	if err != nil {
		return wrapParseErr(ErrTruncatedBody, err)
	}

	*body = b

	return nil
}

// contentLength resolves the declared body length. The lookup is exact: the
// name must appear on the wire as "Content-Length". Absent or unparsable
// values resolve to zero.
func contentLength(h Headers) uint {
	v, ok := h.Get("Content-Length")
	if !ok {
		return 0
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}

	return uint(n)
}
