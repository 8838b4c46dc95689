// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/shinc/shinc/internal/testutil"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var testSignature = &object.Signature{
	Name:  "Release Bot",
	Email: "bot@example.com",
	When:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
}

func initRepo(t *testing.T) (*Repo, string) {
	t.Helper()
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	testutil.MustWriteFile(t, dir, "README.md", "# demo\n")
	r, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.Signature = testSignature
	if _, err := r.Commit("initial", "README.md"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return r, dir
}

func TestOpenDetectsParent(t *testing.T) {
	_, dir := initRepo(t)
	sub := filepath.Join(dir, "src", "lib")
	testutil.MustWriteFile(t, dir, "src/lib/x.sh", "x() { :; }\n")

	r, err := Open(sub)
	if err != nil {
		t.Fatalf("Open(%s): %v", sub, err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(r.Root())
	if got != want {
		t.Errorf("Root = %q, want %q", got, want)
	}
}

func TestOpenNotRepository(t *testing.T) {
	if _, err := Open(t.TempDir()); !errors.Is(err, ErrNotRepository) {
		t.Errorf("Open error = %v, want ErrNotRepository", err)
	}
}

func TestCommit(t *testing.T) {
	r, dir := initRepo(t)
	changelog := testutil.MustWriteFile(t, dir, "CHANGELOG.md", "## 1.0.0\n")
	testutil.MustWriteFile(t, dir, ".shinc/config.toml", "[project]\nversion = \"1.0.0\"\n")
	testutil.MustWriteFile(t, dir, "untracked.txt", "left alone\n")

	hash, err := r.Commit("chore: Release demo 1.0.0", changelog, ".shinc/config.toml")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		t.Fatal(err)
	}
	if commit.Message != "chore: Release demo 1.0.0" {
		t.Errorf("Message = %q", commit.Message)
	}
	if commit.Author.Email != testSignature.Email {
		t.Errorf("Author = %v", commit.Author)
	}
	tree, err := commit.Tree()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"CHANGELOG.md", ".shinc/config.toml", "README.md"} {
		if _, err := tree.File(name); err != nil {
			t.Errorf("commit is missing %s: %v", name, err)
		}
	}
	if _, err := tree.File("untracked.txt"); err == nil {
		t.Error("untracked.txt should not be committed")
	}
}

func TestCommitOutsideRepository(t *testing.T) {
	r, _ := initRepo(t)
	outside := testutil.MustWriteFile(t, t.TempDir(), "x.txt", "x\n")
	if _, err := r.Commit("msg", outside); err == nil {
		t.Error("Commit should reject paths outside the repository")
	}
}

func TestTags(t *testing.T) {
	r, _ := initRepo(t)

	exists, err := r.TagExists("v1.0.0")
	if err != nil || exists {
		t.Fatalf("TagExists before = %v, %v", exists, err)
	}
	if err := r.CreateTag("v1.0.0", "chore: Release demo 1.0.0"); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	exists, err = r.TagExists("v1.0.0")
	if err != nil || !exists {
		t.Fatalf("TagExists after = %v, %v", exists, err)
	}

	ref, err := r.repo.Tag("v1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	tag, err := r.repo.TagObject(ref.Hash())
	if err != nil {
		t.Fatalf("tag is not annotated: %v", err)
	}
	if tag.Message != "chore: Release demo 1.0.0\n" {
		t.Errorf("tag message = %q", tag.Message)
	}

	if err := r.CreateTag("v1.0.0", "again"); !errors.Is(err, ErrTagExists) {
		t.Errorf("CreateTag twice error = %v, want ErrTagExists", err)
	}
}

func TestCurrentBranch(t *testing.T) {
	r, _ := initRepo(t)
	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "master" {
		t.Errorf("CurrentBranch = %q, want master", branch)
	}

	head, err := r.repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: head.Hash()}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.CurrentBranch(); !errors.Is(err, ErrDetachedHead) {
		t.Errorf("CurrentBranch detached error = %v, want ErrDetachedHead", err)
	}
}

func TestPush(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed; file transport needs git-receive-pack")
	}
	r, _ := initRepo(t)
	remoteDir := t.TempDir()
	remote, err := git.PlainInit(remoteDir, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{remoteDir}}); err != nil {
		t.Fatal(err)
	}
	if err := r.CreateTag("v0.2.0", "release"); err != nil {
		t.Fatal(err)
	}

	if err := r.Push(context.Background(), "origin", "master", "v0.2.0"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName("master"),
		plumbing.NewTagReferenceName("v0.2.0"),
	} {
		if _, err := remote.Reference(name, false); err != nil {
			t.Errorf("remote is missing %s: %v", name, err)
		}
	}

	if err := r.Push(context.Background(), "origin", "master", "v0.2.0"); err != nil {
		t.Errorf("second Push should be a no-op: %v", err)
	}
}

func TestPushUnknownRemote(t *testing.T) {
	r, _ := initRepo(t)
	if err := r.Push(context.Background(), "upstream", "master", ""); err == nil {
		t.Error("Push to a missing remote should fail")
	}
}

func TestAuthFor(t *testing.T) {
	t.Cleanup(testutil.MustSetenv(t, "GITHUB_TOKEN", "gh-token"))
	t.Cleanup(testutil.MustUnsetenv(t, "SSH_AUTH_SOCK"))
	t.Cleanup(testutil.SetHomeDir(t, t.TempDir()))

	if auth := authFor([]string{"https://github.com/acme/demo.git"}); auth == nil || auth.Name() != "http-basic-auth" {
		t.Errorf("https auth = %v", auth)
	}
	if auth := authFor([]string{"git@github.com:acme/demo.git"}); auth != nil {
		t.Errorf("ssh auth without agent or keys = %v, want nil", auth)
	}
	if auth := authFor(nil); auth != nil {
		t.Errorf("auth without urls = %v", auth)
	}
}
