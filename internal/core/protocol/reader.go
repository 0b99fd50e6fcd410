package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

const maxLine = 4 << 20

// ErrRead wraps failures of the underlying stream, after which no further
// message can be read.
var ErrRead = errors.New("read messages")

// Reader reads messages from a JSON lines stream. Blank lines and lines
// starting with '#' are skipped.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader returns a reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Reader{sc: sc}
}

// Next returns the next message, or io.EOF at the end of the stream.
func (r *Reader) Next() (Message, error) {
	for r.sc.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.sc.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}

		msg, err := Decode(raw)
		if err != nil {
			return Message{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		msg.Line = r.line
		return msg, nil
	}

	if err := r.sc.Err(); err != nil {
		return Message{}, fmt.Errorf("%w: line %d: %w", ErrRead, r.line+1, err)
	}
	return Message{}, io.EOF
}

// ReadAll decodes every message in r.
func ReadAll(r io.Reader) ([]Message, error) {
	var out []Message
	rd := NewReader(r)
	for {
		msg, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, msg)
	}
}
