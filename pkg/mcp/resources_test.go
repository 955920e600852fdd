package mcp

import "testing"

type fakeProvider struct {
	name          string
	prefix        string
	resources     []Resource
	subscribed    []string
	unsubscribed  []string
	subscribeErr  error
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) CanHandle(uri string) bool {
	return len(uri) >= len(p.prefix) && uri[:len(p.prefix)] == p.prefix
}
func (p *fakeProvider) ReadResource(uri string) ([]ResourceContents, error) {
	return []ResourceContents{{URI: uri, Text: "content"}}, nil
}
func (p *fakeProvider) ListResources(pattern string) ([]Resource, error) {
	return p.resources, nil
}
func (p *fakeProvider) Subscribe(uri string) error {
	p.subscribed = append(p.subscribed, uri)
	return p.subscribeErr
}
func (p *fakeProvider) Unsubscribe(uri string) error {
	p.unsubscribed = append(p.unsubscribed, uri)
	return nil
}

func TestResourceManagerEnabled(t *testing.T) {
	m := NewResourceManager()
	if m.Enabled() {
		t.Error("empty manager should not be enabled")
	}
	m.RegisterResource(Resource{URI: "file:///a"})
	if !m.Enabled() {
		t.Error("manager with a registered resource should be enabled")
	}
}

func TestResourceManagerRegisterAndRead(t *testing.T) {
	m := NewResourceManager()
	p := &fakeProvider{name: "fake", prefix: "fake://"}
	m.RegisterProvider(p)

	contents, err := m.ReadResource("fake://thing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 || contents[0].URI != "fake://thing" {
		t.Errorf("contents = %+v", contents)
	}
}

func TestResourceManagerReadResourceNoProvider(t *testing.T) {
	m := NewResourceManager()
	_, err := m.ReadResource("unknown://x")
	if err == nil {
		t.Fatal("expected error for unclaimed uri")
	}
	want := "No provider found for resource: unknown://x"
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err.Error(), want)
	}
}

func TestResourceManagerListResourcesDedupAndSort(t *testing.T) {
	m := NewResourceManager()
	m.RegisterResource(Resource{URI: "file:///b"})
	p := &fakeProvider{name: "fake", prefix: "fake://", resources: []Resource{
		{URI: "file:///a"},
		{URI: "file:///b"},
	}}
	m.RegisterProvider(p)

	list, next, err := m.ListResources("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Errorf("expected no next cursor for small list, got %v", *next)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2 (deduplicated)", len(list))
	}
	if list[0].URI != "file:///a" || list[1].URI != "file:///b" {
		t.Errorf("list not sorted: %+v", list)
	}
}

func TestResourceManagerListResourcesPagination(t *testing.T) {
	m := NewResourceManager()
	for i := 0; i < pageSize+5; i++ {
		m.RegisterResource(Resource{URI: string(rune('a')) + itoaPad(i)})
	}
	page, next, err := m.ListResources("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != pageSize {
		t.Fatalf("len(page) = %d, want %d", len(page), pageSize)
	}
	if next == nil {
		t.Fatal("expected next cursor")
	}
}

func itoaPad(i int) string {
	digits := "0123456789"
	s := ""
	for i > 0 {
		s = string(digits[i%10]) + s
		i /= 10
	}
	if s == "" {
		s = "0"
	}
	for len(s) < 5 {
		s = "0" + s
	}
	return s
}

func TestResourceManagerSubscribeFiresOnlyOnFirstSubscriber(t *testing.T) {
	m := NewResourceManager()
	p := &fakeProvider{name: "fake", prefix: "fake://"}
	m.RegisterProvider(p)

	if err := m.Subscribe("fake://x", "client1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Subscribe("fake://x", "client2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.subscribed) != 1 {
		t.Fatalf("provider Subscribe called %d times, want 1", len(p.subscribed))
	}
}

func TestResourceManagerUnsubscribeFiresOnlyWhenEmpty(t *testing.T) {
	m := NewResourceManager()
	p := &fakeProvider{name: "fake", prefix: "fake://"}
	m.RegisterProvider(p)

	m.Subscribe("fake://x", "client1")
	m.Subscribe("fake://x", "client2")

	if err := m.Unsubscribe("fake://x", "client1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.unsubscribed) != 0 {
		t.Fatalf("provider Unsubscribe called too early: %d", len(p.unsubscribed))
	}

	if err := m.Unsubscribe("fake://x", "client2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.unsubscribed) != 1 {
		t.Fatalf("provider Unsubscribe called %d times, want 1", len(p.unsubscribed))
	}
}

func TestResourceManagerSubscribeNoProvider(t *testing.T) {
	m := NewResourceManager()
	err := m.Subscribe("unknown://x", "client1")
	if err == nil {
		t.Fatal("expected error for unclaimed uri")
	}
	want := "No provider found for resource: unknown://x"
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err.Error(), want)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	start, err := parseCursor("")
	if err != nil || start != 0 {
		t.Errorf("parseCursor(\"\") = %d, %v, want 0, nil", start, err)
	}
}

func TestParseCursorInvalid(t *testing.T) {
	if _, err := parseCursor("not-a-number"); err == nil {
		t.Error("expected error for non-numeric cursor")
	}
}
