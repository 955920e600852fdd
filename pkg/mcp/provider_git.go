package mcp

import (
	"io"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitResourceProvider serves read-only browsing of a local repository
// clone for git://path/to/file@ref URIs, backed by go-git so the module
// does not shell out to the git binary. Grounded on the teacher's
// go-git dependency and used as the default provider in the bundled
// example server (SPEC_FULL.md §13).
type GitResourceProvider struct {
	repo *git.Repository
}

func NewGitResourceProvider(repoPath string) (*GitResourceProvider, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, ResourceErr("failed to open git repository at %s: %v", repoPath, err)
	}
	return &GitResourceProvider{repo: repo}, nil
}

func (p *GitResourceProvider) Name() string { return "git" }

func (p *GitResourceProvider) CanHandle(uri string) bool {
	return strings.HasPrefix(uri, "git://")
}

func parseGitURI(uri string) (path, ref string) {
	rest := strings.TrimPrefix(uri, "git://")
	if idx := strings.LastIndex(rest, "@"); idx >= 0 {
		return rest[:idx], rest[idx+1:]
	}
	return rest, "HEAD"
}

func (p *GitResourceProvider) resolveCommit(ref string) (*object.Commit, error) {
	var hash plumbing.Hash
	if ref == "HEAD" || ref == "" {
		head, err := p.repo.Head()
		if err != nil {
			return nil, ResourceErr("failed to resolve HEAD: %v", err)
		}
		hash = head.Hash()
	} else {
		resolved, err := p.repo.ResolveRevision(plumbing.Revision(ref))
		if err != nil {
			return nil, ResourceErr("failed to resolve revision %s: %v", ref, err)
		}
		hash = *resolved
	}
	commit, err := p.repo.CommitObject(hash)
	if err != nil {
		return nil, ResourceErr("failed to load commit: %v", err)
	}
	return commit, nil
}

func (p *GitResourceProvider) ReadResource(uri string) ([]ResourceContents, error) {
	path, ref := parseGitURI(uri)
	commit, err := p.resolveCommit(ref)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, ResourceErr("failed to read tree for %s: %v", uri, err)
	}
	file, err := tree.File(path)
	if err != nil {
		return nil, ResourceErr("file not found in git tree: %s", uri)
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, ResourceErr("failed to open blob for %s: %v", uri, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, ResourceErr("failed to read blob for %s: %v", uri, err)
	}
	return []ResourceContents{{URI: uri, MimeType: "text/plain", Text: string(data)}}, nil
}

func (p *GitResourceProvider) ListResources(pattern string) ([]Resource, error) {
	head, err := p.repo.Head()
	if err != nil {
		return nil, nil
	}
	commit, err := p.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, nil
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, nil
	}
	var out []Resource
	err = tree.Files().ForEach(func(f *object.File) error {
		out = append(out, Resource{URI: "git://" + f.Name + "@HEAD", Name: f.Name})
		return nil
	})
	if err != nil {
		return nil, nil
	}
	return out, nil
}

func (p *GitResourceProvider) Subscribe(uri string) error   { return nil }
func (p *GitResourceProvider) Unsubscribe(uri string) error { return nil }
