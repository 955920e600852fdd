package mcp

import (
	"sort"
	"strconv"
	"sync"
)

// ResourceProvider backs one or more resource URIs. Implementations claim
// a URI space via CanHandle; the manager dispatches the first provider
// that claims a given URI.
type ResourceProvider interface {
	Name() string
	CanHandle(uri string) bool
	ReadResource(uri string) ([]ResourceContents, error)
	ListResources(pattern string) ([]Resource, error)
	Subscribe(uri string) error
	Unsubscribe(uri string) error
}

// ResourceManager is the registry + provider dispatch + subscription
// bookkeeping + pagination component of spec.md §4.3.
type ResourceManager struct {
	mu        sync.RWMutex
	resources map[string]Resource
	templates map[string]ResourceTemplate
	providers []ResourceProvider

	subMu         sync.Mutex
	subscriptions map[string]map[string]bool // uri -> set<client_id>
}

func NewResourceManager() *ResourceManager {
	return &ResourceManager{
		resources:     make(map[string]Resource),
		templates:     make(map[string]ResourceTemplate),
		subscriptions: make(map[string]map[string]bool),
	}
}

func (m *ResourceManager) RegisterResource(r Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[r.URI] = r
}

func (m *ResourceManager) UnregisterResource(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resources, uri)
}

func (m *ResourceManager) RegisterTemplate(t ResourceTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.URITemplate] = t
}

func (m *ResourceManager) RegisterProvider(p ResourceProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers = append(m.providers, p)
}

// Enabled reports whether any resource, template, or provider has been
// registered, used by the dispatcher to decide whether to advertise the
// resources capability during initialize.
func (m *ResourceManager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.resources) > 0 || len(m.templates) > 0 || len(m.providers) > 0
}

// ListResources returns the union of the static registry and every
// provider's ListResources, deduplicated by URI, sorted ascending by
// URI, paginated at pageSize per page.
func (m *ResourceManager) ListResources(cursor string) ([]Resource, *string, error) {
	m.mu.RLock()
	merged := make(map[string]Resource, len(m.resources))
	for uri, r := range m.resources {
		merged[uri] = r
	}
	providers := append([]ResourceProvider(nil), m.providers...)
	m.mu.RUnlock()

	for _, p := range providers {
		listed, err := p.ListResources("")
		if err != nil {
			continue
		}
		for _, r := range listed {
			if _, exists := merged[r.URI]; !exists {
				merged[r.URI] = r
			}
		}
	}

	all := make([]Resource, 0, len(merged))
	for _, r := range merged {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].URI < all[j].URI })

	start, err := parseCursor(cursor)
	if err != nil {
		return nil, nil, err
	}
	return paginate(all, start)
}

// ListTemplates returns the registered resource templates, paginated the
// same way as ListResources.
func (m *ResourceManager) ListTemplates(cursor string) ([]ResourceTemplate, *string, error) {
	m.mu.RLock()
	all := make([]ResourceTemplate, 0, len(m.templates))
	for _, t := range m.templates {
		all = append(all, t)
	}
	m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].URITemplate < all[j].URITemplate })

	start, err := parseCursor(cursor)
	if err != nil {
		return nil, nil, err
	}
	if start >= len(all) {
		return []ResourceTemplate{}, nil, nil
	}
	end := start + pageSize
	var next *string
	if end < len(all) {
		s := strconv.Itoa(end)
		next = &s
	} else {
		end = len(all)
	}
	return all[start:end], next, nil
}

// ReadResource picks the first provider that claims uri and reads it.
func (m *ResourceManager) ReadResource(uri string) ([]ResourceContents, error) {
	m.mu.RLock()
	providers := append([]ResourceProvider(nil), m.providers...)
	m.mu.RUnlock()

	for _, p := range providers {
		if p.CanHandle(uri) {
			return p.ReadResource(uri)
		}
	}
	return nil, ResourceErr("No provider found for resource: %s", uri)
}

// Subscribe records clientID as a subscriber of uri. The owning
// provider's Subscribe hook fires only on the empty-to-non-empty
// transition, per spec.md §4.3's explicit invariant.
func (m *ResourceManager) Subscribe(uri, clientID string) error {
	m.subMu.Lock()
	set, existed := m.subscriptions[uri]
	if !existed {
		set = make(map[string]bool)
		m.subscriptions[uri] = set
	}
	wasEmpty := len(set) == 0
	set[clientID] = true
	m.subMu.Unlock()

	if wasEmpty {
		m.mu.RLock()
		providers := append([]ResourceProvider(nil), m.providers...)
		m.mu.RUnlock()
		for _, p := range providers {
			if p.CanHandle(uri) {
				return p.Subscribe(uri)
			}
		}
		return ResourceErr("No provider found for resource: %s", uri)
	}
	return nil
}

// Unsubscribe removes clientID from uri's subscriber set. The owning
// provider's Unsubscribe hook fires only on the non-empty-to-empty
// transition.
func (m *ResourceManager) Unsubscribe(uri, clientID string) error {
	m.subMu.Lock()
	set, ok := m.subscriptions[uri]
	if !ok {
		m.subMu.Unlock()
		return nil
	}
	delete(set, clientID)
	becameEmpty := len(set) == 0
	if becameEmpty {
		delete(m.subscriptions, uri)
	}
	m.subMu.Unlock()

	if becameEmpty {
		m.mu.RLock()
		providers := append([]ResourceProvider(nil), m.providers...)
		m.mu.RUnlock()
		for _, p := range providers {
			if p.CanHandle(uri) {
				return p.Unsubscribe(uri)
			}
		}
	}
	return nil
}

func parseCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	if err := ValidateCursor(cursor); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0, InvalidParamsErr("invalid cursor: %s", cursor)
	}
	return n, nil
}

func paginate(all []Resource, start int) ([]Resource, *string, error) {
	if start >= len(all) {
		return []Resource{}, nil, nil
	}
	end := start + pageSize
	var next *string
	if end < len(all) {
		s := strconv.Itoa(end)
		next = &s
	} else {
		end = len(all)
	}
	return all[start:end], next, nil
}
