// SPDX-License-Identifier: MPL-2.0

package docs

import (
	"errors"
	"fmt"
	"strings"
)

// Supported completion shells.
const (
	Bash       Shell = "bash"
	Elvish     Shell = "elvish"
	Fish       Shell = "fish"
	Nushell    Shell = "nushell"
	PowerShell Shell = "powershell"
	Zsh        Shell = "zsh"
)

// ErrInvalidShell is the sentinel wrapped by InvalidShellError.
var ErrInvalidShell = errors.New("invalid shell")

type (
	// Shell names a shell completion scripts are generated for.
	Shell string

	// InvalidShellError is returned for an unsupported shell name.
	InvalidShellError struct {
		Value Shell
	}
)

// Shells returns every supported shell in generation order.
func Shells() []Shell {
	return []Shell{Bash, Elvish, Fish, Nushell, PowerShell, Zsh}
}

// ParseShell validates s.
func ParseShell(s string) (Shell, error) {
	sh := Shell(strings.ToLower(strings.TrimSpace(s)))
	if valid, errs := sh.IsValid(); !valid {
		return "", errs[0]
	}
	return sh, nil
}

// String returns the shell name.
func (s Shell) String() string { return string(s) }

// IsValid returns whether the Shell is supported.
func (s Shell) IsValid() (bool, []error) {
	for _, known := range Shells() {
		if s == known {
			return true, nil
		}
	}
	return false, []error{&InvalidShellError{Value: s}}
}

// FileName returns the completion file name each shell's loader expects.
func (s Shell) FileName(bin string) string {
	switch s {
	case Bash:
		return bin
	case Elvish:
		return bin + ".elv"
	case Fish:
		return bin + ".fish"
	case Nushell:
		return bin + ".nu"
	case PowerShell:
		return "_" + bin + ".ps1"
	case Zsh:
		return "_" + bin
	default:
		return bin + "." + string(s)
	}
}

func (e *InvalidShellError) Error() string {
	names := make([]string, 0, len(Shells()))
	for _, s := range Shells() {
		names = append(names, string(s))
	}
	return fmt.Sprintf("invalid shell %q: must be one of %s", e.Value, strings.Join(names, ", "))
}

// Unwrap returns ErrInvalidShell for errors.Is() compatibility.
func (e *InvalidShellError) Unwrap() error { return ErrInvalidShell }
