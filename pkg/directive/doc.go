// SPDX-License-Identifier: MPL-2.0

// Package directive tokenizes annotated shell scripts.
//
// A source script is ordinary shell code with directive comments mixed in.
// A directive comment is one or more '#' characters, optional spaces or
// tabs, then '@' followed by a keyword:
//
//	# @include lib/log.sh
//	# @meta version 0.1.0
//	# @describe passed through untouched
//
// Tokenization is a 1:1 line transform. Every input line yields exactly one
// [Event] carrying its 1-based line number. Lines that are not directives
// become [Unknown] events holding the raw line. Directive-shaped lines with
// an unrecognized keyword, or a malformed @meta, become [Unknown] events
// holding a normalized "# @<rest>" rendering. Only a @include without a path
// is a hard error, reported as a [*SyntaxError].
package directive
