// SPDX-License-Identifier: MPL-2.0

package directive

import "strings"

const (
	// KeywordInclude splices another file in place of the directive.
	KeywordInclude = "include"
	// KeywordMeta declares build metadata consumed by argc.
	KeywordMeta = "meta"
	// KeywordDescribe is the argc description tag.
	KeywordDescribe = "describe"

	// MetaVersion is the metadata name stamped with the project version.
	MetaVersion = "version"
	// MetaAuthor names the script author.
	MetaAuthor = "author"
	// MetaDotenv loads a dotenv file before running.
	MetaDotenv = "dotenv"
	// MetaDefaultSubcommand selects the subcommand run without arguments.
	MetaDefaultSubcommand = "default-subcommand"
	// MetaInheritFlagOptions makes subcommands inherit parent flags.
	MetaInheritFlagOptions = "inherit-flag-options"
	// MetaSymbol declares a symbol argument.
	MetaSymbol = "symbol"
	// MetaCombineShorts allows combined short flags.
	MetaCombineShorts = "combine-shorts"
	// MetaManSection sets the man page section.
	MetaManSection = "man-section"
	// MetaRequireTools lists tools that must be on PATH.
	MetaRequireTools = "require-tools"
)

// IsMetaVersion reports whether name is the reserved version metadata name.
func IsMetaVersion(name string) bool {
	return name == MetaVersion
}

// Format renders a directive line. Empty parts are dropped, so
// Format("meta", "combine-shorts", "") yields "# @meta combine-shorts".
func Format(keyword, name, value string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{keyword, name, value} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return "# @" + strings.Join(parts, " ")
}

// FormatMeta renders a "# @meta <name> <value>" line.
func FormatMeta(name, value string) string {
	return Format(KeywordMeta, name, value)
}

// FormatDescribe renders a "# @describe <text>" line.
func FormatDescribe(text string) string {
	return Format(KeywordDescribe, "", text)
}
