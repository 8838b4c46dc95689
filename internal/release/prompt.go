// SPDX-License-Identifier: MPL-2.0

package release

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

type (
	// HuhPrompter asks questions with a huh confirm field. When In is not a
	// terminal the field runs in accessible mode and reads a plain y/n line.
	HuhPrompter struct {
		In  io.Reader
		Out io.Writer

		lines *lineReader
	}

	// lineReader hands out at most one line per Read so each accessible
	// prompt consumes only its own answer.
	lineReader struct {
		r       *bufio.Reader
		pending []byte
	}
)

// NewPrompter returns a prompter on stdin; prompts go to stderr so they
// stay visible when stdout is piped.
func NewPrompter() *HuhPrompter {
	return &HuhPrompter{In: os.Stdin, Out: os.Stderr}
}

// Confirm defaults to yes. Cancelling the prompt counts as declining.
func (p *HuhPrompter) Confirm(ctx context.Context, title string) (bool, error) {
	ok := true
	accessible := !isTerminal(p.In)
	in := p.In
	if accessible {
		if p.lines == nil {
			p.lines = &lineReader{r: bufio.NewReader(p.In)}
		}
		in = p.lines
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).
		WithAccessible(accessible).
		WithInput(in).
		WithOutput(p.Out)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (l *lineReader) Read(p []byte) (int, error) {
	if len(l.pending) == 0 {
		line, err := l.r.ReadBytes('\n')
		if len(line) == 0 {
			return 0, err
		}
		l.pending = line
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
