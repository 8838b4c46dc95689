// SPDX-License-Identifier: MPL-2.0

package directive

import "strings"

// parseFunc decodes the text following a keyword. args is empty or starts
// with a space or tab. A nil Kind with a nil error means the directive is
// malformed but recoverable and the line degrades to Unknown.
type parseFunc func(args string) (Kind, error)

// grammar maps each keyword to its argument parser.
var grammar = map[string]parseFunc{
	KeywordInclude: parseInclude,
	KeywordMeta:    parseMeta,
}

// errMissingArgument carries a grammar failure up to the tokenizer,
// which attaches the line number.
type errMissingArgument string

func (e errMissingArgument) Error() string { return string(e) }

func parseInclude(args string) (Kind, error) {
	path := strings.TrimSpace(args)
	if path == "" {
		return nil, errMissingArgument("@" + KeywordInclude + " requires a file path")
	}
	return Include{Path: path}, nil
}

func parseMeta(args string) (Kind, error) {
	if args == "" {
		return nil, nil
	}
	body := strings.TrimRightFunc(strings.TrimLeft(args, " \t"), isSpace)
	n := 0
	for n < len(body) && isNameChar(body[n]) {
		n++
	}
	if n == 0 {
		return nil, nil
	}
	key, tail := body[:n], body[n:]
	if tail != "" && !isBlank(tail[0]) {
		return nil, nil
	}
	return Meta{Key: key, Value: strings.TrimSpace(tail)}, nil
}

// parseLine classifies a single line.
func parseLine(line string) (Kind, error) {
	i := 0
	for i < len(line) && line[i] == '#' {
		i++
	}
	if i == 0 {
		return Unknown{Text: line}, nil
	}
	for i < len(line) && isBlank(line[i]) {
		i++
	}
	if i == len(line) || line[i] != '@' {
		return Unknown{Text: line}, nil
	}
	rest := line[i+1:]

	keyword, args := cutKeyword(rest)
	if parse, ok := grammar[keyword]; ok {
		kind, err := parse(args)
		if err != nil {
			return nil, err
		}
		if kind != nil {
			return kind, nil
		}
	}
	return Unknown{Text: "# @" + rest}, nil
}

// cutKeyword splits s at the first space or tab.
func cutKeyword(s string) (keyword, args string) {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\v' || r == '\f' || r == '\r' || r == '\n'
}

func isNameChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '_' || c == '-' || c == '.' || c == ':'
}
