// SPDX-License-Identifier: MPL-2.0

// Package render fills the embedded distribution templates: the Homebrew
// formula and the install script.
package render

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"
	"unicode"

	"github.com/shinc/shinc/internal/config"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	formulaTemplate = "formula.rb.tmpl"
	installTemplate = "install.sh.tmpl"

	// DefaultInstallFilename is the default output name of the install script.
	DefaultInstallFilename = "install.sh"
)

// ErrNoRepository is returned when project.repository is needed but unset.
var ErrNoRepository = errors.New("repository URL not set in configuration")

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").ParseFS(templateFS, "templates/*.tmpl"))

type (
	// FormulaData is the input of the Homebrew formula template.
	FormulaData struct {
		Name      string
		ClassName string
		URL       string
		Checksum  string
		Project   config.ProjectConfig
		Bins      []config.Bin
	}

	// InstallData is the input of the install script template.
	InstallData struct {
		Name string
		URL  string
	}
)

// NewFormulaData builds formula data for cfg. An empty name falls back to
// the dist name. URL is empty when no repository is configured; Checksum is
// left for the caller to fill.
func NewFormulaData(cfg *config.Config, name string) FormulaData {
	if name == "" {
		name = cfg.DistName()
	}
	d := FormulaData{
		Name:      name,
		ClassName: ClassName(name),
		Project:   cfg.Project,
		Bins:      cfg.Bins,
	}
	if repo := cfg.Project.Repository; repo != "" {
		d.URL = FormulaURL(repo, name, cfg.Project.Version)
	}
	return d
}

// Homepage returns project.homepage, else project.repository, else "".
func (d FormulaData) Homepage() string {
	if d.Project.Homepage != "" {
		return d.Project.Homepage
	}
	return d.Project.Repository
}

// Filename is the conventional formula file name.
func (d FormulaData) Filename() string { return d.Name + ".rb" }

// Formula renders the Homebrew formula to w.
func Formula(w io.Writer, d FormulaData) error {
	if err := templates.ExecuteTemplate(w, formulaTemplate, d); err != nil {
		return fmt.Errorf("failed to render formula: %w", err)
	}
	return nil
}

// NewInstallData builds install script data for cfg.
func NewInstallData(cfg *config.Config) (InstallData, error) {
	repo := strings.TrimRight(cfg.Project.Repository, "/")
	if repo == "" {
		return InstallData{}, ErrNoRepository
	}
	return InstallData{Name: cfg.DistName(), URL: repo}, nil
}

// InstallScript renders the install script source to w.
func InstallScript(w io.Writer, d InstallData) error {
	if err := templates.ExecuteTemplate(w, installTemplate, d); err != nil {
		return fmt.Errorf("failed to render install script: %w", err)
	}
	return nil
}

// FormulaURL returns the release archive download URL on a GitHub-style host.
func FormulaURL(repository, name string, version config.Version) string {
	repo := strings.TrimRight(repository, "/")
	return fmt.Sprintf("%s/releases/download/%s/%s-%s.tar.gz", repo, version.Tag(), name, version.Tag())
}

// ClassName converts name to the PascalCase Ruby class name Homebrew expects,
// e.g. "git-tools" becomes "GitTools".
func ClassName(name string) string {
	title := cases.Title(language.Und)
	var b strings.Builder
	for _, w := range words(name) {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// words splits s on non-alphanumerics and lower-to-upper case changes.
func words(s string) []string {
	var (
		out  []string
		cur  []rune
		prev rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return out
}
