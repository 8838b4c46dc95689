// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalogued issue.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	ConfigNotFoundId
	SourceNotFoundId
	IncludeNotFoundId
	DirectiveSyntaxErrorId
	CompilerNotFoundId
	CompileFailedId
	ReleaseFailedId
)

type (
	// MarkdownMsg is the markdown body of an issue.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a user-facing explanation of a known failure mode.
	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as terminal markdown with the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

One of the configuration layers could not be read or does not match the schema.

## Layers (highest precedence first):
1. ` + "`.shinc/config.toml`" + ` in the project
2. ` + "`config.toml`" + ` in the shinc user config directory
3. Built-in defaults

## Things you can try:
- Check the TOML syntax at the reported line and column
- Remove keys the error reports as "field not allowed"
- List the files shinc reads:
~~~
$ shinc config list --exists
~~~`,
	}

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No bins configured!

shinc needs at least one ` + "`[[bins]]`" + ` entry to know what to build.

## Things you can try:
- Generate a project config:
~~~
$ shinc config generate
~~~

- Then declare a bin:
~~~toml
[[bins]]
name = "hello"
path = "main.sh"
~~~`,
	}

	sourceNotFoundIssue = &Issue{
		id: SourceNotFoundId,
		mdMsg: `
# Source script not found!

The entry script of a bin does not exist. Bin paths are relative to
` + "`build.src_dir`" + ` (default ` + "`src`" + `).

## Things you can try:
- Check the ` + "`path`" + ` of the bin in ` + "`.shinc/config.toml`" + `
- Check ` + "`build.src_dir`",
	}

	includeNotFoundIssue = &Issue{
		id: IncludeNotFoundId,
		mdMsg: `
# Included file not found!

A ` + "`# @include <path>`" + ` directive names a file that does not exist.
Include paths are relative to ` + "`build.src_dir`" + `, not to the including file.

## Things you can try:
- Fix the path in the directive
- Create the missing file under the source directory`,
	}

	directiveSyntaxErrorIssue = &Issue{
		id: DirectiveSyntaxErrorId,
		mdMsg: `
# Invalid directive!

A directive line could not be parsed.

## Directive forms:
~~~bash
# @include lib/log.sh
# @meta version 1.0.0
# @meta dotenv
~~~

## Things you can try:
- Give every ` + "`@include`" + ` a file path
- Fix the line reported in the error`,
	}

	compilerNotFoundIssue = &Issue{
		id: CompilerNotFoundId,
		mdMsg: `
# argc is not installed!

shinc compiles scripts, man pages and completions with argc.

## Things you can try:
- Install argc:
~~~
$ cargo install argc
~~~

- Or download a release binary and put it on your PATH`,
		extLinks: []HttpLink{"https://github.com/sigoden/argc"},
	}

	compileFailedIssue = &Issue{
		id: CompileFailedId,
		mdMsg: `
# argc failed to compile the script!

The assembled script was written but argc rejected it. The expanded
source is kept in ` + "`target/build/<bin>.sh`" + `.

## Things you can try:
- Inspect the expanded script at the reported location
- Check the argc comment tags (` + "`@cmd`, `@option`, `@arg`" + `)`,
		extLinks: []HttpLink{"https://github.com/sigoden/argc/blob/main/docs/specification.md"},
	}

	releaseFailedIssue = &Issue{
		id: ReleaseFailedId,
		mdMsg: `
# Release failed!

## Things you can try:
- Make sure the project is a git repository with at least one commit
- Set ` + "`user.name`" + ` and ` + "`user.email`" + ` in your git config
- Check that the remote exists:
~~~
$ git remote -v
~~~`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		configNotFoundIssue.Id():       configNotFoundIssue,
		sourceNotFoundIssue.Id():       sourceNotFoundIssue,
		includeNotFoundIssue.Id():      includeNotFoundIssue,
		directiveSyntaxErrorIssue.Id(): directiveSyntaxErrorIssue,
		compilerNotFoundIssue.Id():     compilerNotFoundIssue,
		compileFailedIssue.Id():        compileFailedIssue,
		releaseFailedIssue.Id():        releaseFailedIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
