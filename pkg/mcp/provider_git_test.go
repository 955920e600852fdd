package mcp

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestParseGitURIWithRef(t *testing.T) {
	path, ref := parseGitURI("git://src/main.go@v1.0.0")
	if path != "src/main.go" || ref != "v1.0.0" {
		t.Errorf("got path=%q ref=%q", path, ref)
	}
}

func TestParseGitURIDefaultsToHEAD(t *testing.T) {
	path, ref := parseGitURI("git://src/main.go")
	if path != "src/main.go" || ref != "HEAD" {
		t.Errorf("got path=%q ref=%q", path, ref)
	}
}

func TestGitResourceProviderCanHandle(t *testing.T) {
	p := &GitResourceProvider{}
	if !p.CanHandle("git://src/main.go@HEAD") {
		t.Error("expected git:// to be handled")
	}
	if p.CanHandle("file:///a") {
		t.Error("expected file:// to not be handled")
	}
}

func newTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello git"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := wt.Add("hello.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	_, err = wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return dir
}

func TestGitResourceProviderReadResourceHEAD(t *testing.T) {
	dir := newTestRepo(t)
	p, err := NewGitResourceProvider(dir)
	if err != nil {
		t.Fatalf("NewGitResourceProvider: %v", err)
	}
	contents, err := p.ReadResource("git://hello.txt@HEAD")
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(contents) != 1 || contents[0].Text != "hello git" {
		t.Errorf("contents = %+v", contents)
	}
}

func TestGitResourceProviderReadResourceMissingFile(t *testing.T) {
	dir := newTestRepo(t)
	p, err := NewGitResourceProvider(dir)
	if err != nil {
		t.Fatalf("NewGitResourceProvider: %v", err)
	}
	if _, err := p.ReadResource("git://missing.txt@HEAD"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGitResourceProviderListResources(t *testing.T) {
	dir := newTestRepo(t)
	p, err := NewGitResourceProvider(dir)
	if err != nil {
		t.Fatalf("NewGitResourceProvider: %v", err)
	}
	list, err := p.ListResources("")
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(list) != 1 || list[0].Name != "hello.txt" {
		t.Errorf("list = %+v", list)
	}
}
