package mcp

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// HttpProvider fetches resources over plain HTTP(S), grounded on
// original_source/src/server/features/resources.rs's HttpProvider. No
// pack dependency supersedes net/http.Client for a bare GET-and-read, so
// this provider stays on the standard library (see DESIGN.md).
type HttpProvider struct {
	client *http.Client
}

func NewHttpProvider() *HttpProvider {
	return &HttpProvider{client: &http.Client{Timeout: 10 * time.Second}}
}

func (p *HttpProvider) Name() string { return "http" }

func (p *HttpProvider) CanHandle(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

func (p *HttpProvider) ReadResource(uri string) ([]ResourceContents, error) {
	resp, err := p.client.Get(uri)
	if err != nil {
		return nil, ResourceErr("failed to fetch %s: %v", uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, ResourceErr("fetch %s returned status %d", uri, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ResourceErr("failed to read %s: %v", uri, err)
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return []ResourceContents{{URI: uri, MimeType: mimeType, Text: string(body)}}, nil
}

// ListResources is a no-op: the HTTP provider does not enumerate a space
// of URIs, only reads ones it is given.
func (p *HttpProvider) ListResources(pattern string) ([]Resource, error) {
	return nil, nil
}

func (p *HttpProvider) Subscribe(uri string) error   { return nil }
func (p *HttpProvider) Unsubscribe(uri string) error { return nil }
