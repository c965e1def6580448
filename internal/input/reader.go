// Package input reads operator answers for interactive confirmations.
package input

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Reader yields one answer per call, delimiter included.
type Reader interface {
	ReadString(delim byte) (string, error)
}

// LineReader reads answers from any byte stream.
type LineReader struct {
	reader *bufio.Reader
}

// NewReader buffers r for line-oriented reads.
func NewReader(r io.Reader) *LineReader {
	return &LineReader{reader: bufio.NewReader(r)}
}

// NewStdinReader reads answers from the terminal.
func NewStdinReader() *LineReader {
	return NewReader(os.Stdin)
}

func (r *LineReader) ReadString(delim byte) (string, error) {
	return r.reader.ReadString(delim)
}

// Confirm reads one line from r and reports whether it is "y" or "yes",
// case-insensitively. End of input without an answer means no; a final
// line without a newline still counts.
func Confirm(r Reader) (bool, error) {
	answer, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
