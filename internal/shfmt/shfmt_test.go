// SPDX-License-Identifier: MPL-2.0

package shfmt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kr.dev/diff"
	"mvdan.cc/sh/v3/syntax"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions([]string{"-i", "2", "-ci", "-bn", "-sr", "-fn", "-s", "-w", "-ln", "posix"})
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	want := Options{
		Indent:           2,
		BinaryNextLine:   true,
		SwitchCaseIndent: true,
		SpaceRedirects:   true,
		FunctionNextLine: true,
		Simplify:         true,
		Lang:             syntax.LangPOSIX,
	}
	diff.Test(t, t.Errorf, opts, want)
}

func TestParseOptionsDefaults(t *testing.T) {
	for _, args := range [][]string{nil, {"-ln", "auto"}} {
		opts, err := ParseOptions(args)
		if err != nil {
			t.Fatalf("ParseOptions(%q): %v", args, err)
		}
		if opts.Lang != syntax.LangBash || opts.Indent != 0 {
			t.Errorf("ParseOptions(%q) = %+v, want bash with tab indent", args, opts)
		}
	}
}

func TestParseOptionsErrors(t *testing.T) {
	tests := [][]string{
		{"-x"},
		{"-i", "two"},
		{"-ln", "zsh"},
		{"-i", "2", "main.sh"},
	}
	for _, args := range tests {
		_, err := ParseOptions(args)
		if !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("ParseOptions(%q) error = %v, want ErrInvalidOptions", args, err)
		}
		if _, err := New(args); err == nil {
			t.Errorf("New(%q) succeeded", args)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		args []string
		src  string
		want string
	}{
		{
			name: "tabs by default",
			src:  "if true;then\necho hi\nfi\n",
			want: "if true; then\n\techo hi\nfi\n",
		},
		{
			name: "two space indent",
			args: []string{"-i", "2"},
			src:  "if true;then\necho hi\nfi\n",
			want: "if true; then\n  echo hi\nfi\n",
		},
		{
			name: "comments and directives survive",
			args: []string{"-i", "2"},
			src:  "#!/usr/bin/env bash\n# @meta version 1.0.0\n# @cmd greet\ngreet()  {\necho hi\n}\n",
			want: "#!/usr/bin/env bash\n# @meta version 1.0.0\n# @cmd greet\ngreet() {\n  echo hi\n}\n",
		},
		{
			name: "simplify",
			args: []string{"-s"},
			src:  "echo $(( $a + 1 ))\n",
			want: "echo $((a + 1))\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.args)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			got, err := f.Format([]byte(tt.src))
			if err != nil {
				t.Fatalf("Format: %v", err)
			}
			diff.Test(t, t.Errorf, string(got), tt.want)
		})
	}
}

func TestFormatParseError(t *testing.T) {
	f, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Format([]byte("if true; then\n")); err == nil {
		t.Error("Format accepted an unterminated if")
	}
}

func TestFormatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello")
	if err := os.WriteFile(path, []byte("echo   hi\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := FormatFile(f, path); err != nil {
		t.Fatalf("FormatFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "echo hi\n" {
		t.Errorf("content = %q", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
}
