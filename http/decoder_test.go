package http

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type RequestDecoderTestSuite struct {
	suite.Suite
}

func TestRequestDecoderTestSuite(t *testing.T) {
	suite.Run(t, new(RequestDecoderTestSuite))
}

func (s *RequestDecoderTestSuite) decode(raw string) (Request, error) {
	rd := NewRequestDecoder(strings.NewReader(raw))

	var request Request
	err := rd.Decode(&request)
	return request, err
}

func (s *RequestDecoderTestSuite) TestDecode() {
	body := `{"proceed": true}`

	rawRequest := "" +
		"DELETE /users/actor HTTP/1.1\n" +
		"Content-Type: application/json\n" +
		"Content-Length: 17\n" +
		"\n" +
		body

	request, err := s.decode(rawRequest)
	s.Require().NoError(err)

	s.Equal(MethodDelete, request.Method)
	s.Equal("/users/actor", request.Target)
	s.Equal(map[string]string{
		"Content-Type":   "application/json",
		"Content-Length": "17",
	}, request.Headers.Fields())
	s.Equal([]byte(body), request.Body)
}

func (s *RequestDecoderTestSuite) TestDecodeCRLF() {
	rawRequest := "" +
		"POST /example HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Content-Length: 13\r\n" +
		"\r\n" +
		"field1=value1"

	request, err := s.decode(rawRequest)
	s.Require().NoError(err)

	s.Equal(MethodPost, request.Method)
	s.Equal("/example", request.Target)
	s.Equal(map[string]string{
		"Host":           "example.com",
		"Content-Length": "13",
	}, request.Headers.Fields())
	s.Equal([]byte("field1=value1"), request.Body)
}

// The declared length is the authoritative read count: extra bytes on the
// stream past it are not part of the body.
func (s *RequestDecoderTestSuite) TestDecodeDeclaredLengthWins() {
	rawRequest := "" +
		"DELETE /users/actor HTTP/1.1\n" +
		"Content-Length: 15\n" +
		"\n" +
		`{"proceed": true}`

	request, err := s.decode(rawRequest)
	s.Require().NoError(err)

	s.Equal([]byte(`{"proceed": tru`), request.Body)
	s.Len(request.Body, 15)
}

func (s *RequestDecoderTestSuite) TestDecodeNoContentLength() {
	request, err := s.decode("GET / HTTP/1.1\nHost: example.com\n\n")
	s.Require().NoError(err)

	s.Equal([]byte{}, request.Body)
}

func (s *RequestDecoderTestSuite) TestDecodeUnparsableContentLength() {
	request, err := s.decode("GET / HTTP/1.1\nContent-Length: banana\n\n")
	s.Require().NoError(err)

	s.Equal([]byte{}, request.Body)
}

// The lookup is case-sensitive on the name as tokenized, so a lowercased
// header does not declare a body.
func (s *RequestDecoderTestSuite) TestDecodeContentLengthCaseSensitive() {
	request, err := s.decode("GET / HTTP/1.1\ncontent-length: 5\n\nhello")
	s.Require().NoError(err)

	s.Equal([]byte{}, request.Body)
}

func (s *RequestDecoderTestSuite) TestDecodeErrors() {
	testcases := []struct {
		desc    string
		input   string
		wantErr error
	}{
		{
			desc:    "empty stream",
			input:   "",
			wantErr: ErrMissingStartLine,
		},
		{
			desc:    "start line without terminator",
			input:   "GET / HTTP/1.1",
			wantErr: ErrMissingStartLine,
		},
		{
			desc:    "empty start line",
			input:   "\n",
			wantErr: ErrMalformedStartLine,
		},
		{
			desc:    "whitespace-only start line",
			input:   "   \n",
			wantErr: ErrMalformedStartLine,
		},
		{
			desc:    "unknown method",
			input:   "BREW /coffee HTTP/1.1\n\n",
			wantErr: ErrUnknownMethod,
		},
		{
			desc:    "header without separator",
			input:   "GET / HTTP/1.1\nasjkdsah12321-213 21\n\n",
			wantErr: ErrMalformedHeader,
		},
		{
			desc:    "header block never terminated",
			input:   "GET / HTTP/1.1\nHost: example.com\n",
			wantErr: ErrMissingHeaderTerminator,
		},
		{
			desc:    "body shorter than declared",
			input:   "POST / HTTP/1.1\nContent-Length: 10\n\nabc",
			wantErr: ErrTruncatedBody,
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			_, err := s.decode(tc.input)
			s.ErrorIs(err, tc.wantErr)
		})
	}
}

// IO-caused failures keep their cause in the chain.
func (s *RequestDecoderTestSuite) TestDecodeErrorCause() {
	_, err := s.decode("GET / HTTP/1.1\nHost: example.com\n")
	s.ErrorIs(err, ErrMissingHeaderTerminator)
	s.ErrorIs(err, io.ErrUnexpectedEOF)
}

// A malformed header aborts the parse; no partial header map leaks out.
func (s *RequestDecoderTestSuite) TestDecodeMalformedHeaderAborts() {
	rawRequest := "" +
		"GET / HTTP/1.1\n" +
		"Host: example.com\n" +
		"bogus-line\n" +
		"\n"

	request, err := s.decode(rawRequest)
	s.ErrorIs(err, ErrMalformedHeader)
	s.Zero(request.Headers.Len())
}

// Parsing the same bytes from two independent streams yields structurally
// equal requests.
func (s *RequestDecoderTestSuite) TestDecodeIdempotent() {
	rawRequest := "" +
		"PUT /things/1 HTTP/1.1\n" +
		"Content-Length: 3\n" +
		"\n" +
		"abc"

	first, err := s.decode(rawRequest)
	s.Require().NoError(err)

	second, err := s.decode(rawRequest)
	s.Require().NoError(err)

	s.Equal(first, second)
}
