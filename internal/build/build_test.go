// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/shinc/shinc/internal/assembler"
	"github.com/shinc/shinc/internal/config"
	"github.com/shinc/shinc/internal/testutil"

	"kr.dev/diff"
)

type fakeCompiler struct {
	mu     sync.Mutex
	widths map[string]int
	fail   map[string]error
}

func (f *fakeCompiler) Build(_ context.Context, source, binName string, termWidth int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[binName]; err != nil {
		return "", err
	}
	if f.widths == nil {
		f.widths = map[string]int{}
	}
	f.widths[binName] = termWidth
	return "#!/usr/bin/env bash\n# compiled " + binName + "\n" + source, nil
}

func (f *fakeCompiler) Mangen(context.Context, string, string) (map[string]string, error) {
	return nil, nil
}

func (f *fakeCompiler) Completions(context.Context, string, []string) (string, error) {
	return "", nil
}

type markFormatter struct{}

func (markFormatter) Format(src []byte) ([]byte, error) {
	return append(src, "# formatted\n"...), nil
}

type failFormatter struct{}

func (failFormatter) Format([]byte) ([]byte, error) { return nil, errors.New("parse error") }

func project(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	testutil.MustWriteFile(t, root, "src/main.sh", "# @meta version 0.0.0\n# @include lib/log.sh\nmain() { log hi; }\n")
	testutil.MustWriteFile(t, root, "src/admin.sh", "admin() { :; }\n")
	testutil.MustWriteFile(t, root, "src/lib/log.sh", "log() { echo \"$*\"; }\n")
	return &config.Config{
		Root:    root,
		Project: config.ProjectConfig{Version: "1.4.0"},
		Bins: []config.Bin{
			{Name: "hello", Path: "main.sh"},
			{Name: "hello-admin", Path: "admin.sh"},
		},
		Build: config.BuildConfig{SrcDir: "src", TargetDir: "target"},
	}
}

func TestBuild(t *testing.T) {
	cfg := project(t)
	comp := &fakeCompiler{}
	b := &Builder{Config: cfg, Compiler: comp, TermWidth: 90}

	results, err := b.Build(context.Background(), cfg.Bins)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(results) != 2 || results[0].Bin.Name != "hello" || results[1].Bin.Name != "hello-admin" {
		t.Fatalf("results = %+v", results)
	}

	wantBuild := "# @meta version 1.4.0\n# lib/log.sh\nlog() { echo \"$*\"; }\n\nmain() { log hi; }\n" +
		"\n\n" + assembler.Bootstrap + "\n"
	diff.Test(t, t.Errorf, testutil.MustReadFile(t, cfg.BuildFile("hello")), wantBuild)

	wantBin := "#!/usr/bin/env bash\n# compiled hello\n" + wantBuild
	diff.Test(t, t.Errorf, testutil.MustReadFile(t, cfg.BinFile("hello")), wantBin)

	info, err := os.Stat(cfg.BinFile("hello-admin"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("bin mode = %v, want 0755", info.Mode().Perm())
	}
	if comp.widths["hello"] != 90 {
		t.Errorf("term width = %d, want 90", comp.widths["hello"])
	}
}

func TestBuildFormats(t *testing.T) {
	cfg := project(t)
	b := &Builder{Config: cfg, Compiler: &fakeCompiler{}, Formatter: markFormatter{}}

	if _, err := b.BuildBin(context.Background(), cfg.Bins[1]); err != nil {
		t.Fatalf("BuildBin: %v", err)
	}
	buildFile := testutil.MustReadFile(t, cfg.BuildFile("hello-admin"))
	if strings.Count(buildFile, "# formatted\n") != 1 {
		t.Errorf("build file should be formatted once:\n%s", buildFile)
	}
	binFile := testutil.MustReadFile(t, cfg.BinFile("hello-admin"))
	if strings.Count(binFile, "# formatted\n") != 2 {
		t.Errorf("bin file should carry both format passes:\n%s", binFile)
	}
}

func TestBuildFormatterFailureIsNotFatal(t *testing.T) {
	cfg := project(t)
	b := &Builder{Config: cfg, Compiler: &fakeCompiler{}, Formatter: failFormatter{}}

	if _, err := b.BuildBin(context.Background(), cfg.Bins[1]); err != nil {
		t.Fatalf("BuildBin: %v", err)
	}
	if _, err := os.Stat(cfg.BinFile("hello-admin")); err != nil {
		t.Errorf("bin file missing: %v", err)
	}
}

func TestBuildSourceNotFound(t *testing.T) {
	cfg := project(t)
	b := &Builder{Config: cfg, Compiler: &fakeCompiler{}}

	_, err := b.BuildBin(context.Background(), config.Bin{Name: "ghost", Path: "ghost.sh"})
	var snf *SourceNotFoundError
	if !errors.As(err, &snf) {
		t.Fatalf("error = %v, want *SourceNotFoundError", err)
	}
	if snf.Bin != "ghost" || !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("error = %+v", snf)
	}
}

func TestBuildMissingInclude(t *testing.T) {
	cfg := project(t)
	testutil.MustWriteFile(t, cfg.Root, "src/main.sh", "# @include nope.sh\n")
	b := &Builder{Config: cfg, Compiler: &fakeCompiler{}}

	_, err := b.BuildBin(context.Background(), cfg.Bins[0])
	if !errors.Is(err, assembler.ErrMissingInclude) {
		t.Fatalf("error = %v, want ErrMissingInclude", err)
	}
	if _, err := os.Stat(cfg.BuildFile("hello")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("build file should not exist, stat error = %v", err)
	}
}

func TestBuildCompileFailureRemovesBin(t *testing.T) {
	cfg := project(t)
	stale := testutil.MustWriteFile(t, cfg.Root, "target/bin/hello", "old\n")
	boom := errors.New("argc: unknown tag")
	b := &Builder{Config: cfg, Compiler: &fakeCompiler{fail: map[string]error{"hello": boom}}}

	_, err := b.BuildBin(context.Background(), cfg.Bins[0])
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CompileError", err)
	}
	if !errors.Is(err, boom) {
		t.Error("CompileError should wrap the compiler error")
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Error("stale bin file was not removed")
	}
	if _, err := os.Stat(cfg.BuildFile("hello")); err != nil {
		t.Errorf("build file should be kept for inspection: %v", err)
	}
}

func TestBuildStopsAfterFirstFailure(t *testing.T) {
	cfg := project(t)
	bins := []config.Bin{{Name: "ghost", Path: "ghost.sh"}, cfg.Bins[1]}
	b := &Builder{Config: cfg, Compiler: &fakeCompiler{}, Limit: 1}

	results, err := b.Build(context.Background(), bins)
	if results != nil {
		t.Errorf("results = %+v, want nil on failure", results)
	}
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("error = %v, want ErrSourceNotFound", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("sibling cancellation should not be reported: %v", err)
	}
	if _, err := os.Stat(cfg.BinFile("hello-admin")); !errors.Is(err, os.ErrNotExist) {
		t.Error("build after the failure should not have run")
	}
}

func TestBuildCanceled(t *testing.T) {
	cfg := project(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &Builder{Config: cfg, Compiler: &fakeCompiler{}}

	if _, err := b.Build(ctx, cfg.Bins); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
