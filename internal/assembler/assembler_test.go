// SPDX-License-Identifier: MPL-2.0

package assembler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shinc/shinc/pkg/directive"

	"kr.dev/diff"
)

const trailer = "\n\n" + Bootstrap + "\n"

func assemble(t *testing.T, src string, opts Options) (string, error) {
	t.Helper()
	events, err := directive.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	var sb strings.Builder
	err = Assemble(&sb, events, opts)
	return sb.String(), err
}

func TestAssemblePlainTextRoundTrip(t *testing.T) {
	src := "#!/usr/bin/env bash\n\n  set -e\n# comment\n\techo \"$@\"\n\n"
	got, err := assemble(t, src, Options{Resolver: MapResolver{}})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.HasSuffix(got, trailer) {
		t.Fatalf("output does not end with bootstrap trailer:\n%s", got)
	}
	diff.Test(t, t.Errorf, strings.TrimSuffix(got, trailer), src)
}

func TestAssembleVersionOverride(t *testing.T) {
	got, err := assemble(t, "# @meta version 0.1.0", Options{Version: "2.3.4"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.HasPrefix(got, "# @meta version 2.3.4\n") {
		t.Errorf("output = %q, want version 2.3.4", got)
	}
	if strings.Contains(got, "0.1.0") {
		t.Errorf("output still carries source version: %q", got)
	}
}

func TestAssembleVersionOverrideEveryOccurrence(t *testing.T) {
	got, err := assemble(t, "# @meta version 1\n# @meta version 2", Options{Version: "9.9.9"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := "# @meta version 9.9.9\n# @meta version 9.9.9\n" + trailer
	diff.Test(t, t.Errorf, got, want)
}

func TestAssembleVersionWithoutOverride(t *testing.T) {
	got, err := assemble(t, "# @meta version 0.1.0\n##  @meta   author   Jane Doe ", Options{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := "# @meta version 0.1.0\n# @meta author Jane Doe\n" + trailer
	diff.Test(t, t.Errorf, got, want)
}

func TestAssembleIncludeSplice(t *testing.T) {
	src := "echo start\n# @include lib.sh\necho end"
	got, err := assemble(t, src, Options{Resolver: MapResolver{"lib.sh": "echo middle"}})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := "echo start\n# lib.sh\necho middle\n\necho end\n" + trailer
	diff.Test(t, t.Errorf, got, want)
}

func TestAssembleIncludeIsNotRecursive(t *testing.T) {
	lib := "# @include other.sh\r\n# @meta version 0.0.1\r\nfoo() { :; }\r\n"
	got, err := assemble(t, "# @include lib.sh", Options{
		Resolver: MapResolver{"lib.sh": lib},
		Version:  "1.0.0",
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := "# lib.sh\n# @include other.sh\n# @meta version 0.0.1\nfoo() { :; }\n\n" + trailer
	diff.Test(t, t.Errorf, got, want)
}

func TestAssembleEmptyInclude(t *testing.T) {
	got, err := assemble(t, "# @include empty.sh", Options{Resolver: MapResolver{"empty.sh": ""}})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	diff.Test(t, t.Errorf, got, "# empty.sh\n\n"+trailer)
}

func TestAssembleMissingInclude(t *testing.T) {
	var sb strings.Builder
	events, err := directive.Tokenize("echo a\n# @include missing.sh")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	err = Assemble(&sb, events, Options{Resolver: MapResolver{}})
	var mie *MissingIncludeError
	if !errors.As(err, &mie) {
		t.Fatalf("Assemble error = %v, want *MissingIncludeError", err)
	}
	if mie.Path != "missing.sh" {
		t.Errorf("Path = %q, want missing.sh", mie.Path)
	}
	if !errors.Is(err, ErrMissingInclude) {
		t.Error("error does not wrap ErrMissingInclude")
	}
	if sb.Len() != 0 {
		t.Errorf("partial output was flushed: %q", sb.String())
	}
}

func TestAssembleUnknownDirectivePassthrough(t *testing.T) {
	got, err := assemble(t, "# @future-thing abc", Options{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	diff.Test(t, t.Errorf, got, "# @future-thing abc\n"+trailer)
}

func TestDirResolver(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "lib", "log.sh"), []byte("log() { echo \"$*\"; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := DirResolver{Root: root}
	got, err := r.Resolve("lib/log.sh")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "log() { echo \"$*\"; }\n" {
		t.Errorf("Resolve = %q", got)
	}

	for _, p := range []string{"nope.sh", "lib"} {
		if _, err := r.Resolve(p); !errors.Is(err, ErrMissingInclude) {
			t.Errorf("Resolve(%q) error = %v, want ErrMissingInclude", p, err)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "build", "hello.sh")

	events, err := directive.Tokenize("echo hi")
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(out, events, Options{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	diff.Test(t, t.Errorf, string(data), "echo hi\n"+trailer)
}

func TestWriteFileLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "hello.sh")

	events, err := directive.Tokenize("# @include missing.sh")
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(out, events, Options{Resolver: DirResolver{Root: dir}}); !errors.Is(err, ErrMissingInclude) {
		t.Fatalf("WriteFile error = %v, want ErrMissingInclude", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}
