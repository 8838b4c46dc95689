// SPDX-License-Identifier: MPL-2.0

package directive

import (
	"errors"
	"io"
	"strings"
	"testing"

	"kr.dev/diff"
)

func FuzzTokenizeLineCount(f *testing.F) {
	f.Add("echo hi\n")
	f.Add("# @meta version 1.0\r\n# @include a.sh\n\n")
	f.Add("#\t@future thing\rline two")
	f.Fuzz(func(t *testing.T, src string) {
		events, err := Tokenize(src)
		if err != nil {
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			return
		}
		for i, ev := range events {
			if ev.Position != i+1 {
				t.Fatalf("event %d has position %d", i, ev.Position)
			}
			if ev.Kind == nil {
				t.Fatalf("event %d has nil kind", i)
			}
		}
	})
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Kind
	}{
		{
			name:  "plain shell",
			input: "#!/usr/bin/env bash\n  echo hi\n\nexit 0\n",
			want: []Kind{
				Unknown{Text: "#!/usr/bin/env bash"},
				Unknown{Text: "  echo hi"},
				Unknown{Text: ""},
				Unknown{Text: "exit 0"},
			},
		},
		{
			name:  "include",
			input: "# @include lib/log.sh",
			want:  []Kind{Include{Path: "lib/log.sh"}},
		},
		{
			name:  "include trims surrounding whitespace",
			input: "##\t@include   util.sh  \t",
			want:  []Kind{Include{Path: "util.sh"}},
		},
		{
			name:  "include keeps inner spaces",
			input: "#@include my lib.sh",
			want:  []Kind{Include{Path: "my lib.sh"}},
		},
		{
			name:  "meta with value",
			input: "# @meta version 0.1.0",
			want:  []Kind{Meta{Key: "version", Value: "0.1.0"}},
		},
		{
			name:  "meta without value",
			input: "# @meta combine-shorts",
			want:  []Kind{Meta{Key: "combine-shorts"}},
		},
		{
			name:  "meta value is trimmed",
			input: "# @meta require-tools   git,curl   ",
			want:  []Kind{Meta{Key: "require-tools", Value: "git,curl"}},
		},
		{
			name:  "meta key characters",
			input: "# @meta a_b-c.d:e x",
			want:  []Kind{Meta{Key: "a_b-c.d:e", Value: "x"}},
		},
		{
			name:  "meta without key degrades",
			input: "# @meta",
			want:  []Kind{Unknown{Text: "# @meta"}},
		},
		{
			name:  "meta with blank key degrades",
			input: "# @meta   ",
			want:  []Kind{Unknown{Text: "# @meta   "}},
		},
		{
			name:  "meta with invalid key degrades",
			input: "## @meta !bad value",
			want:  []Kind{Unknown{Text: "# @meta !bad value"}},
		},
		{
			name:  "meta key followed by junk degrades",
			input: "# @meta key!x",
			want:  []Kind{Unknown{Text: "# @meta key!x"}},
		},
		{
			name:  "keyword prefix is not the keyword",
			input: "# @metadata foo\n# @includes x",
			want: []Kind{
				Unknown{Text: "# @metadata foo"},
				Unknown{Text: "# @includes x"},
			},
		},
		{
			name:  "unknown directive is normalized",
			input: "###   @describe A tool",
			want:  []Kind{Unknown{Text: "# @describe A tool"}},
		},
		{
			name:  "comment that is not a directive",
			input: "# plain comment @ here",
			want:  []Kind{Unknown{Text: "# plain comment @ here"}},
		},
		{
			name:  "indented directive is not a directive",
			input: "  # @include x.sh",
			want:  []Kind{Unknown{Text: "  # @include x.sh"}},
		},
		{
			name:  "case sensitive",
			input: "# @Include x.sh",
			want:  []Kind{Unknown{Text: "# @Include x.sh"}},
		},
		{
			name:  "universal newlines",
			input: "a\r\nb\rc\n",
			want: []Kind{
				Unknown{Text: "a"},
				Unknown{Text: "b"},
				Unknown{Text: "c"},
			},
		},
		{
			name:  "empty input",
			input: "",
			want:  []Kind{},
		},
		{
			name:  "only newlines",
			input: "\n\n",
			want:  []Kind{Unknown{Text: ""}, Unknown{Text: ""}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize: %v", err)
			}
			got := make([]Kind, 0, len(events))
			for i, ev := range events {
				if ev.Position != i+1 {
					t.Errorf("event %d: position = %d, want %d", i, ev.Position, i+1)
				}
				got = append(got, ev.Kind)
			}
			diff.Test(t, t.Errorf, got, tt.want)
		})
	}
}

func TestTokenizeLineCount(t *testing.T) {
	lines := []string{"echo start", "# @include lib.sh", "", "# @meta version 1", "# @x", "echo end"}
	events, err := Tokenize(strings.Join(lines, "\n"))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(events) != len(lines) {
		t.Fatalf("got %d events, want %d", len(events), len(lines))
	}
}

func TestTokenizeMissingIncludePath(t *testing.T) {
	for _, src := range []string{
		"echo ok\n# @include",
		"echo ok\n# @include   \t",
	} {
		_, err := Tokenize(src)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("Tokenize(%q) error = %v, want *SyntaxError", src, err)
		}
		if se.Line != 2 {
			t.Errorf("Tokenize(%q) line = %d, want 2", src, se.Line)
		}
		if !errors.Is(err, ErrSyntax) {
			t.Errorf("Tokenize(%q) error does not wrap ErrSyntax", src)
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Errorf("error message %q does not name the line", err.Error())
		}
	}
}

func TestUnknownIsFixedPoint(t *testing.T) {
	for _, src := range []string{
		"# @future-thing abc",
		"##  @future-thing abc",
		"# @meta",
		"# @meta !x",
		"echo plain",
	} {
		first, err := Tokenize(src)
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", src, err)
		}
		u, ok := first[0].Kind.(Unknown)
		if !ok {
			t.Fatalf("Tokenize(%q) = %#v, want Unknown", src, first[0].Kind)
		}
		second, err := Tokenize(u.Text)
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", u.Text, err)
		}
		diff.Test(t, t.Errorf, second[0].Kind, first[0].Kind)
	}
}

func TestDecoderStickyError(t *testing.T) {
	d := NewDecoder(strings.NewReader("# @include\necho after\n"))
	if _, err := d.Decode(); err == nil {
		t.Fatal("expected syntax error")
	}
	if _, err := d.Decode(); !errors.Is(err, ErrSyntax) {
		t.Errorf("second Decode error = %v, want sticky syntax error", err)
	}
}

func TestDecoderEOF(t *testing.T) {
	d := NewDecoder(strings.NewReader("one\ntwo"))
	for want := 1; want <= 2; want++ {
		ev, err := d.Decode()
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if ev.Position != want {
			t.Errorf("Position = %d, want %d", ev.Position, want)
		}
	}
	if _, err := d.Decode(); !errors.Is(err, io.EOF) {
		t.Errorf("Decode at end = %v, want io.EOF", err)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{FormatMeta(MetaVersion, "1.2.3"), "# @meta version 1.2.3"},
		{FormatMeta(MetaCombineShorts, ""), "# @meta combine-shorts"},
		{FormatDescribe("A tool"), "# @describe A tool"},
		{Format("", "", ""), "# @"},
		{Include{Path: "a.sh"}.String(), "# @include a.sh"},
		{Meta{Key: "author", Value: "me"}.String(), "# @meta author me"},
		{Unknown{Text: "  raw"}.String(), "  raw"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
