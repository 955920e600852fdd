package mcp

import (
	"encoding/base64"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileSystemProvider serves resources rooted at a directory on disk,
// grounded on original_source/src/server/features/resources.rs's
// FileSystemProvider. It canonicalizes both the configured root and
// every requested path and refuses to serve outside the root.
type FileSystemProvider struct {
	root    string
	log     *zap.Logger
	watcher *fsnotify.Watcher
	onChange func()
}

// NewFileSystemProvider resolves root to its canonical form immediately
// so every later comparison is apples-to-apples.
func NewFileSystemProvider(root string, log *zap.Logger) (*FileSystemProvider, error) {
	canon, err := filepath.EvalSymlinks(root)
	if err != nil {
		canon, err = filepath.Abs(root)
		if err != nil {
			return nil, ResourceErr("cannot resolve filesystem provider root %s: %v", root, err)
		}
	}
	return &FileSystemProvider{root: canon, log: log}, nil
}

func (p *FileSystemProvider) Name() string { return "filesystem" }

func (p *FileSystemProvider) CanHandle(uri string) bool {
	return strings.HasPrefix(uri, "file://")
}

// resolve canonicalizes the requested path and verifies it lies beneath
// the provider's root, per spec.md §4.3's filesystem security invariant.
func (p *FileSystemProvider) resolve(uri string) (string, error) {
	raw := strings.TrimPrefix(uri, "file://")
	candidate := filepath.Join(p.root, filepath.Clean("/"+raw))
	canon, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		canon = candidate
	}
	rel, err := filepath.Rel(p.root, canon)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ResourceErr("path escapes provider root: %s", uri)
	}
	return canon, nil
}

func (p *FileSystemProvider) ReadResource(uri string) ([]ResourceContents, error) {
	path, err := p.resolve(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ResourceErr("failed to read %s: %v", uri, err)
	}
	mimeType := guessMime(path)
	if utf8.Valid(data) {
		return []ResourceContents{{URI: uri, MimeType: mimeType, Text: string(data)}}, nil
	}
	return []ResourceContents{{URI: uri, MimeType: mimeType, Blob: base64.StdEncoding.EncodeToString(data)}}, nil
}

func (p *FileSystemProvider) ListResources(pattern string) ([]Resource, error) {
	var out []Resource
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(p.root, path)
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size := info.Size()
		out = append(out, Resource{
			URI:      "file://" + filepath.ToSlash(rel),
			Name:     d.Name(),
			MimeType: guessMime(path),
			Size:     &size,
		})
		return nil
	})
	if err != nil {
		return nil, ResourceErr("failed to list filesystem resources: %v", err)
	}
	return out, nil
}

// Subscribe starts an fsnotify watch on the provider root. Create, remove
// and rename events invoke the callback registered with OnChange, if any;
// the provider publishes no notification itself. This wires
// github.com/fsnotify/fsnotify into the change-notification surface
// spec.md §4.3 leaves implicit in the provider interface.
func (p *FileSystemProvider) Subscribe(uri string) error {
	if p.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ResourceErr("failed to start filesystem watcher: %v", err)
	}
	if err := w.Add(p.root); err != nil {
		w.Close()
		return ResourceErr("failed to watch %s: %v", p.root, err)
	}
	p.watcher = w
	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if p.onChange != nil && (event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
					p.onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if p.log != nil {
					p.log.Warn("filesystem watcher error", zap.Error(err))
				}
			}
		}
	}()
	return nil
}

// Unsubscribe tears down the fsnotify watch.
func (p *FileSystemProvider) Unsubscribe(uri string) error {
	if p.watcher != nil {
		err := p.watcher.Close()
		p.watcher = nil
		return err
	}
	return nil
}

// OnChange registers the callback invoked when the watched root changes.
func (p *FileSystemProvider) OnChange(fn func()) { p.onChange = fn }

func guessMime(path string) string {
	ext := filepath.Ext(path)
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	return "application/octet-stream"
}
