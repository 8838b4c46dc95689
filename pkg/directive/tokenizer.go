// SPDX-License-Identifier: MPL-2.0

package directive

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

// MaxLineSize bounds a single source line.
const MaxLineSize = 16 << 20

// Decoder reads events from an input stream, one line at a time.
type Decoder struct {
	s    *bufio.Scanner
	line int // current line number (1-indexed)
	err  error
}

// NewDecoder creates a new Decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64<<10), MaxLineSize)
	s.Split(scanLines)
	return &Decoder{s: s}
}

// Decode returns the event for the next line. It returns io.EOF when the
// input is exhausted and a *SyntaxError for a malformed @include. Errors
// are sticky.
func (d *Decoder) Decode() (Event, error) {
	if d.err != nil {
		return Event{}, d.err
	}
	if !d.s.Scan() {
		d.err = d.s.Err()
		if d.err == nil {
			d.err = io.EOF
		}
		return Event{}, d.err
	}
	d.line++

	kind, err := parseLine(d.s.Text())
	if err != nil {
		d.err = &SyntaxError{Line: d.line, Message: err.Error()}
		return Event{}, d.err
	}
	return Event{Position: d.line, Kind: kind}, nil
}

// Tokenize splits source into lines and classifies each one.
// The result has exactly one event per line, in source order.
func Tokenize(source string) ([]Event, error) {
	events := make([]Event, 0, strings.Count(source, "\n")+1)
	d := NewDecoder(strings.NewReader(source))
	for {
		ev, err := d.Decode()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
}

// scanLines is a bufio.SplitFunc that accepts "\n", "\r\n" and a lone "\r"
// as line terminators. A final line without a terminator is returned as is;
// a trailing terminator does not produce an extra empty line.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// Need one more byte to tell "\r" from "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
