// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shinc/shinc/internal/assembler"
	"github.com/shinc/shinc/internal/build"
	"github.com/shinc/shinc/internal/compiler"
	"github.com/shinc/shinc/internal/config"
	"github.com/shinc/shinc/internal/issue"
	"github.com/shinc/shinc/internal/release"
	"github.com/shinc/shinc/internal/vcs"
	"github.com/shinc/shinc/pkg/directive"

	"github.com/charmbracelet/fang"
	"golang.org/x/term"
)

// classifyError maps a command failure to an issue catalog ID. Zero means
// the error has no catalog entry.
func classifyError(err error) issue.Id {
	var compileErr *build.CompileError
	var ae *issue.ActionableError
	switch {
	case errors.Is(err, compiler.ErrNotInstalled):
		return issue.CompilerNotFoundId
	case errors.Is(err, config.ErrNoBins):
		return issue.ConfigNotFoundId
	case errors.Is(err, build.ErrSourceNotFound):
		return issue.SourceNotFoundId
	case errors.Is(err, assembler.ErrMissingInclude):
		return issue.IncludeNotFoundId
	case errors.Is(err, directive.ErrSyntax):
		return issue.DirectiveSyntaxErrorId
	case errors.As(err, &compileErr):
		return issue.CompileFailedId
	case errors.Is(err, release.ErrTagExists),
		errors.Is(err, release.ErrNoConfigFile),
		errors.Is(err, vcs.ErrNotRepository),
		errors.Is(err, vcs.ErrDetachedHead):
		return issue.ReleaseFailedId
	case errors.As(err, &ae) && (ae.Operation == "load configuration" || ae.Operation == "validate configuration"):
		return issue.ConfigLoadFailedId
	}
	return 0
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// newErrorHandler returns the fang error handler. Errors with a catalog
// entry or actionable context get a styled message followed by the
// rendered issue; anything else, usage errors included, goes to fang.
func (a *App) newErrorHandler() fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return
		}
		id := classifyError(err)
		var ae *issue.ActionableError
		if id == 0 && !errors.As(err, &ae) {
			fang.DefaultErrorHandler(w, styles, err)
			return
		}
		fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.flags.verbose))
		renderIssue(w, id, glamourStyle(a.stderr))
	}
}

// renderIssue prints the catalog entry for id, if any.
func renderIssue(w io.Writer, id issue.Id, style string) {
	if id == 0 {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(style)
	if err != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", id, "error", err)
		return
	}
	fmt.Fprint(w, rendered)
}

// glamourStyle picks a glamour style: "dark" on a terminal, plain otherwise.
func glamourStyle(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "dark"
	}
	return "notty"
}
