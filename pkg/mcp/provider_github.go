package mcp

import (
	"context"
	"strings"

	"github.com/google/go-github/v57/github"
)

// GitHubResourceProvider serves resources addressed as
// github://owner/repo/path@ref, backed by the GitHub Contents API. It
// wires github.com/google/go-github/v57 into a concrete provider,
// grounded on the teacher's go.mod dependency and spec.md §4.3's
// provider interface being generic over URI schemes.
type GitHubResourceProvider struct {
	client *github.Client
}

func NewGitHubResourceProvider(client *github.Client) *GitHubResourceProvider {
	if client == nil {
		client = github.NewClient(nil)
	}
	return &GitHubResourceProvider{client: client}
}

func (p *GitHubResourceProvider) Name() string { return "github" }

func (p *GitHubResourceProvider) CanHandle(uri string) bool {
	return strings.HasPrefix(uri, "github://")
}

// parseGitHubURI splits github://owner/repo/path@ref into its parts; ref
// defaults to the repository's default branch when absent.
func parseGitHubURI(uri string) (owner, repo, path, ref string, err error) {
	rest := strings.TrimPrefix(uri, "github://")
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 {
		return "", "", "", "", InvalidParamsErr("malformed github URI: %s", uri)
	}
	owner = parts[0]
	repo = parts[1]
	if len(parts) == 3 {
		path = parts[2]
	}
	if idx := strings.LastIndex(path, "@"); idx >= 0 {
		ref = path[idx+1:]
		path = path[:idx]
	}
	return owner, repo, path, ref, nil
}

func (p *GitHubResourceProvider) ReadResource(uri string) ([]ResourceContents, error) {
	owner, repo, path, ref, err := parseGitHubURI(uri)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}
	file, _, _, err := p.client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil || file == nil {
		return nil, ResourceErr("failed to fetch github content %s: %v", uri, err)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, ResourceErr("failed to decode github content %s: %v", uri, err)
	}
	return []ResourceContents{{URI: uri, MimeType: "text/plain", Text: content}}, nil
}

func (p *GitHubResourceProvider) ListResources(pattern string) ([]Resource, error) {
	owner, repo, path, ref, err := parseGitHubURI(pattern)
	if err != nil {
		return nil, nil
	}
	ctx := context.Background()
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}
	_, dirContents, _, err := p.client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, nil
	}
	out := make([]Resource, 0, len(dirContents))
	for _, entry := range dirContents {
		if entry.GetType() != "file" {
			continue
		}
		out = append(out, Resource{
			URI:  "github://" + owner + "/" + repo + "/" + entry.GetPath(),
			Name: entry.GetName(),
			Size: int64Ptr(int64(entry.GetSize())),
		})
	}
	return out, nil
}

func (p *GitHubResourceProvider) Subscribe(uri string) error   { return nil }
func (p *GitHubResourceProvider) Unsubscribe(uri string) error { return nil }

func int64Ptr(v int64) *int64 { return &v }
