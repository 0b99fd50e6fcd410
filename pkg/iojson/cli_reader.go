package iojson

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrTerminal is returned when input would be read from an interactive
// terminal.
var ErrTerminal = errors.New("no input provided (stdin is a terminal); pass a file or pipe input")

// Stdin is the path that selects standard input.
const Stdin = "-"

// Open opens path for reading. An empty path or "-" reads stdin, which must
// not be a terminal.
func Open(path string) (io.ReadCloser, error) {
	if path == "" || path == Stdin {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, ErrTerminal
		}
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}
