// SPDX-License-Identifier: MPL-2.0

package directive

import (
	"errors"
	"fmt"
)

// ErrSyntax is the sentinel wrapped by SyntaxError.
var ErrSyntax = errors.New("syntax error")

type (
	// Event is one tokenized source line.
	Event struct {
		// Position is the 1-based line number in the source.
		Position int
		// Kind is one of Include, Meta or Unknown.
		Kind Kind
	}

	// Kind is the decoded content of a line.
	Kind interface {
		// String renders the kind back to a source line.
		String() string
		isKind()
	}

	// Include requests that the file at Path be spliced in.
	Include struct {
		Path string
	}

	// Meta declares build metadata. Value may be empty.
	Meta struct {
		Key   string
		Value string
	}

	// Unknown is any line that is not a recognized directive.
	Unknown struct {
		Text string
	}

	// SyntaxError reports a directive whose required grammar failed.
	SyntaxError struct {
		Line    int    // line number (1-indexed)
		Message string // error message without line prefix
	}
)

func (Include) isKind() {}
func (Meta) isKind()    {}
func (Unknown) isKind() {}

func (k Include) String() string { return Format(KeywordInclude, "", k.Path) }
func (k Meta) String() string    { return FormatMeta(k.Key, k.Value) }
func (k Unknown) String() string { return k.Text }

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Message)
}

// Unwrap returns ErrSyntax so callers can use errors.Is.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }
