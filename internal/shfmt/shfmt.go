// SPDX-License-Identifier: MPL-2.0

// Package shfmt formats shell scripts in-process using mvdan.cc/sh, configured
// from the same flag list the shfmt command line accepts.
package shfmt

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrInvalidOptions is the sentinel wrapped by OptionsError.
var ErrInvalidOptions = errors.New("invalid shfmt options")

type (
	// Formatter rewrites a shell script into canonical form.
	Formatter interface {
		Format(src []byte) ([]byte, error)
	}

	// Options mirrors the shfmt printer and parser flags.
	Options struct {
		Indent           uint
		BinaryNextLine   bool
		SwitchCaseIndent bool
		SpaceRedirects   bool
		KeepPadding      bool
		FunctionNextLine bool
		Minify           bool
		Simplify         bool
		Lang             syntax.LangVariant
	}

	// Syntax is the default Formatter.
	Syntax struct {
		opts Options
	}

	// OptionsError reports an unusable shfmt flag list.
	OptionsError struct {
		Args []string
		Err  error
	}
)

// ParseOptions reads a shfmt flag list such as ["-i", "2", "-ci"].
// Write-in-place (-w) is accepted and ignored.
func ParseOptions(args []string) (Options, error) {
	opts := Options{Lang: syntax.LangBash}

	fs := flag.NewFlagSet("shfmt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.UintVar(&opts.Indent, "i", 0, "indent")
	fs.BoolVar(&opts.BinaryNextLine, "bn", false, "binary ops next line")
	fs.BoolVar(&opts.SwitchCaseIndent, "ci", false, "switch case indent")
	fs.BoolVar(&opts.SpaceRedirects, "sr", false, "space redirects")
	fs.BoolVar(&opts.KeepPadding, "kp", false, "keep padding")
	fs.BoolVar(&opts.FunctionNextLine, "fn", false, "function next line")
	fs.BoolVar(&opts.Minify, "mn", false, "minify")
	fs.BoolVar(&opts.Simplify, "s", false, "simplify")
	fs.Bool("w", false, "write")
	fs.Var(&opts.Lang, "ln", "language variant")

	if err := fs.Parse(args); err != nil {
		return Options{}, &OptionsError{Args: args, Err: err}
	}
	if fs.NArg() > 0 {
		return Options{}, &OptionsError{Args: args, Err: fmt.Errorf("unexpected argument %q", fs.Arg(0))}
	}
	// Assembled scripts carry no file extension to detect from.
	if opts.Lang == syntax.LangAuto {
		opts.Lang = syntax.LangBash
	}
	return opts, nil
}

// New returns a Formatter for the given flag list.
func New(args []string) (*Syntax, error) {
	opts, err := ParseOptions(args)
	if err != nil {
		return nil, err
	}
	return &Syntax{opts: opts}, nil
}

// Format implements Formatter.
func (s *Syntax) Format(src []byte) ([]byte, error) {
	parser := syntax.NewParser(syntax.KeepComments(true), syntax.Variant(s.opts.Lang))
	file, err := parser.Parse(bytes.NewReader(src), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if s.opts.Simplify {
		syntax.Simplify(file)
	}

	printer := syntax.NewPrinter(
		syntax.Indent(s.opts.Indent),
		syntax.BinaryNextLine(s.opts.BinaryNextLine),
		syntax.SwitchCaseIndent(s.opts.SwitchCaseIndent),
		syntax.SpaceRedirects(s.opts.SpaceRedirects),
		syntax.KeepPadding(s.opts.KeepPadding),
		syntax.FunctionNextLine(s.opts.FunctionNextLine),
		syntax.Minify(s.opts.Minify),
	)
	var buf bytes.Buffer
	if err := printer.Print(&buf, file); err != nil {
		return nil, fmt.Errorf("failed to print script: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatFile formats path in place, preserving its mode.
func FormatFile(f Formatter, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := f.Format(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if bytes.Equal(src, out) {
		return nil
	}
	return os.WriteFile(path, out, info.Mode().Perm())
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("invalid shfmt options [%s]: %v", strings.Join(e.Args, " "), e.Err)
}

// Unwrap returns ErrInvalidOptions and the parse error.
func (e *OptionsError) Unwrap() []error {
	return []error{ErrInvalidOptions, e.Err}
}
