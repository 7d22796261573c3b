package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

type Status struct {
	Code   int
	Phrase string
}

var (
	StatusOK                  = Status{200, "OK"}
	StatusBadRequest          = Status{400, "Bad Request"}
	StatusRequestTimeout      = Status{408, "Request Timeout"}
	StatusInternalServerError = Status{500, "Internal Server Error"}
	StatusNotImplemented      = Status{501, "Not Implemented"}
)

type Response struct {
	Status  Status
	Headers []Field

	Body []byte
}

// ResponseEncoder writes HTTP/1.1 responses onto a stream.
type ResponseEncoder struct {
	bw *bufio.Writer
}

func NewResponseEncoder(w io.Writer) *ResponseEncoder {
	return &ResponseEncoder{bw: bufio.NewWriter(w)}
}

var crlf = []byte{CR, LF}

func (re *ResponseEncoder) writeLine(line []byte) error {
	if _, err := re.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	if _, err := re.bw.Write(crlf); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

// Encode writes response onto the stream. Content-Length is computed from
// the actual body length; a caller-provided field with that name is dropped
// in favor of the computed one.
func (re *ResponseEncoder) Encode(response Response) error {
	if err := re.encodeStatusLine(response.Status); err != nil {
		return errors.Wrap(err, "encoding status line")
	}

	for _, field := range response.Headers {
		if field.Name == "Content-Length" {
			continue
		}
		if err := re.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	length := Field{Name: "Content-Length", Value: strconv.Itoa(len(response.Body))}
	if err := re.writeLine(length.Text()); err != nil {
		return errors.Wrap(err, "writing content length")
	}

	// An empty line ends the header block.
	if err := re.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing header terminator")
	}

	if _, err := re.bw.Write(response.Body); err != nil {
		return errors.Wrap(err, "writing response body")
	}

	return errors.Wrap(re.bw.Flush(), "flushing response")
}

func (re *ResponseEncoder) encodeStatusLine(status Status) error {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("HTTP/1.1")
	buf.WriteByte(SP)
	buf.WriteString(strconv.Itoa(status.Code))
	buf.WriteByte(SP)
	buf.WriteString(status.Phrase)

	return errors.Wrap(re.writeLine(buf.Bytes()), "writing line")
}
