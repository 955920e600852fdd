package mcp

import "testing"

func TestParseGitHubURIWithRef(t *testing.T) {
	owner, repo, path, ref, err := parseGitHubURI("github://acme/widgets/src/main.go@v1.2.3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != "acme" || repo != "widgets" || path != "src/main.go" || ref != "v1.2.3" {
		t.Errorf("got owner=%q repo=%q path=%q ref=%q", owner, repo, path, ref)
	}
}

func TestParseGitHubURIWithoutRef(t *testing.T) {
	owner, repo, path, ref, err := parseGitHubURI("github://acme/widgets/src/main.go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != "acme" || repo != "widgets" || path != "src/main.go" || ref != "" {
		t.Errorf("got owner=%q repo=%q path=%q ref=%q", owner, repo, path, ref)
	}
}

func TestParseGitHubURINoPath(t *testing.T) {
	owner, repo, path, _, err := parseGitHubURI("github://acme/widgets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != "acme" || repo != "widgets" || path != "" {
		t.Errorf("got owner=%q repo=%q path=%q", owner, repo, path)
	}
}

func TestParseGitHubURIMalformed(t *testing.T) {
	if _, _, _, _, err := parseGitHubURI("github://acme"); err == nil {
		t.Error("expected error for malformed uri missing repo")
	}
}

func TestGitHubResourceProviderCanHandle(t *testing.T) {
	p := NewGitHubResourceProvider(nil)
	if !p.CanHandle("github://acme/widgets/path") {
		t.Error("expected github:// to be handled")
	}
	if p.CanHandle("https://github.com/acme/widgets") {
		t.Error("expected https:// not to be handled")
	}
}

func TestInt64Ptr(t *testing.T) {
	p := int64Ptr(42)
	if p == nil || *p != 42 {
		t.Errorf("int64Ptr(42) = %v", p)
	}
}
