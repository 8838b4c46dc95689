// SPDX-License-Identifier: MPL-2.0

// Package assembler expands a tokenized source script into a single shell
// script ready for the argc compiler.
package assembler

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shinc/shinc/pkg/directive"
)

// Bootstrap is the final hand-off line appended to every assembled script.
const Bootstrap = `eval "$(argc --argc-eval "$0" "$@")"`

type (
	// Options configures one assembly pass.
	Options struct {
		// Resolver loads the contents of included files. Required when the
		// events contain an Include.
		Resolver Resolver
		// Version, when non-empty, replaces the value of every
		// "@meta version" directive.
		Version string
	}

	// writer accumulates output lines; the first write error is sticky.
	writer struct {
		w   *bufio.Writer
		err error
	}
)

// Assemble writes the expanded script for events to w. Output is buffered and
// only flushed when every event has been processed, so on error w receives at
// most a partial prefix that the caller must discard.
func Assemble(w io.Writer, events []directive.Event, opts Options) error {
	out := &writer{w: bufio.NewWriter(w)}

	for _, ev := range events {
		switch k := ev.Kind.(type) {
		case directive.Unknown:
			out.line(k.Text)
		case directive.Meta:
			value := k.Value
			if directive.IsMetaVersion(k.Key) && opts.Version != "" {
				value = opts.Version
			}
			out.line(directive.FormatMeta(k.Key, value))
		case directive.Include:
			if err := out.include(k.Path, opts.Resolver); err != nil {
				return fmt.Errorf("line %d: %w", ev.Position, err)
			}
		default:
			return fmt.Errorf("line %d: unexpected event kind %T", ev.Position, ev.Kind)
		}
	}

	out.line("\n")
	out.line(Bootstrap)
	if out.err != nil {
		return out.err
	}
	return out.w.Flush()
}

func (o *writer) line(s string) {
	if o.err != nil {
		return
	}
	if _, err := o.w.WriteString(s); err != nil {
		o.err = err
		return
	}
	o.err = o.w.WriteByte('\n')
}

// include writes the "# <path>" marker, the file contents line by line and a
// blank separator.
func (o *writer) include(path string, r Resolver) error {
	if r == nil {
		return fmt.Errorf("no resolver configured for include %q", path)
	}
	content, err := r.Resolve(path)
	if err != nil {
		return err
	}
	slog.Debug("write include file", "path", path)

	o.line("# " + path)
	for _, l := range splitLines(content) {
		o.line(l)
	}
	o.line("")
	return o.err
}

// splitLines splits on "\n" and "\r\n" and drops one trailing empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
