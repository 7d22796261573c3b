package iolib

import (
	"bytes"
	"io"
)

const readChunkSize = 512

// UntilReader wraps an io.Reader with delimiter- and count-oriented reads.
// Bytes read past a delimiter stay buffered, so plain Reads observe them
// before the underlying reader is touched again.
type UntilReader struct {
	r io.Reader

	buf *bytes.Buffer
}

func NewUntilReader(r io.Reader) *UntilReader {
	return &UntilReader{r: r, buf: bytes.NewBuffer(nil)}
}

func (ur *UntilReader) Read(p []byte) (n int, err error) {
	if ur.buf.Len() > 0 {
		n, err = ur.buf.Read(p)
		if err == io.EOF {
			err = nil
		}
		return n, err
	}

	return ur.r.Read(p)
}

// ReadUntil reads until delim. The output includes delim.
// If the underlying reader fails before delim is seen, the bytes read so far
// are returned along with the error. A plain EOF becomes
// [io.ErrUnexpectedEOF] since the delimiter never arrived.
func (ur *UntilReader) ReadUntil(delim byte) ([]byte, error) {
	for {
		if idx := bytes.IndexByte(ur.buf.Bytes(), delim); idx >= 0 {
			return bytes.Clone(ur.buf.Next(idx + 1)), nil
		}

		temp := make([]byte, readChunkSize)
		n, err := ur.r.Read(temp)
		ur.buf.Write(temp[:n])

		if err != nil {
			if bytes.IndexByte(temp[:n], delim) >= 0 {
				// The delimiter arrived together with the error.
				continue
			}

			rest := bytes.Clone(ur.buf.Bytes())
			ur.buf.Reset()
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return rest, err
		}
	}
}

// ReadFull reads exactly n bytes into a buffer sized from n.
// Fewer available bytes yield [io.ErrUnexpectedEOF].
func (ur *UntilReader) ReadFull(n uint) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(ur, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return buf, nil
}
