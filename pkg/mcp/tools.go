package mcp

import (
	"encoding/json"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// ToolHandler backs one tool's execution. toolDefinitionFor composes a
// Tool definition out of the handler's own metadata, matching
// spec.md §4.4's "default tool_definition() composes these into a Tool".
type ToolHandler interface {
	Name() string
	Description() string
	InputSchema() json.RawMessage
	Execute(args json.RawMessage) (*ToolResult, error)
	ValidateArguments(args json.RawMessage) error
}

func toolDefinitionFor(h ToolHandler) Tool {
	return Tool{
		Name:        h.Name(),
		Description: h.Description(),
		InputSchema: h.InputSchema(),
	}
}

// ToolManager holds the tool definition registry and the handler
// registry, keyed by tool name, per spec.md §4.4.
type ToolManager struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	handlers map[string]ToolHandler
}

func NewToolManager() *ToolManager {
	return &ToolManager{
		tools:    make(map[string]Tool),
		handlers: make(map[string]ToolHandler),
	}
}

func (m *ToolManager) RegisterTool(t Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools[t.Name] = t
}

func (m *ToolManager) UnregisterTool(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tools, name)
}

func (m *ToolManager) RegisterHandler(h ToolHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[h.Name()] = h
}

// RegisterHandlerWithTool registers both the handler and its derived
// tool definition in one call.
func (m *ToolManager) RegisterHandlerWithTool(h ToolHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[h.Name()] = h
	m.tools[h.Name()] = toolDefinitionFor(h)
}

func (m *ToolManager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tools) > 0
}

// ListTools returns tools sorted ascending by name, paginated at
// pageSize. A tool with a definition but no handler is still listed —
// definition is identity per spec.md §9's Open Question resolution.
func (m *ToolManager) ListTools(cursor string) ([]Tool, *string, error) {
	m.mu.RLock()
	all := make([]Tool, 0, len(m.tools))
	for _, t := range m.tools {
		all = append(all, t)
	}
	m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	start, err := parseCursor(cursor)
	if err != nil {
		return nil, nil, err
	}
	if start >= len(all) {
		return []Tool{}, nil, nil
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

// CallTool looks up the handler, validates arguments, then executes.
// A normal handler failure surfaces as ToolResult{IsError:true}, not a
// protocol error, per spec.md §4.4 and §7.
func (m *ToolManager) CallTool(name string, args json.RawMessage) (*ToolResult, error) {
	m.mu.RLock()
	_, hasTool := m.tools[name]
	handler, hasHandler := m.handlers[name]
	m.mu.RUnlock()

	if !hasTool && !hasHandler {
		return nil, ToolErr("Tool not found: %s", name)
	}
	if !hasHandler {
		return nil, ToolErr("No handler registered for tool: %s", name)
	}
	if err := handler.ValidateArguments(args); err != nil {
		return nil, err
	}
	result, err := handler.Execute(args)
	if err != nil {
		return &ToolResult{Content: []Content{TextContent(err.Error())}, IsError: true}, nil
	}
	return result, nil
}

// ToolHandlerFactory constructs a fresh ToolHandler instance.
type ToolHandlerFactory func() ToolHandler

// ToolHandlerRegistration is one entry in the process-wide handler
// registry: a named factory plus a priority used to order discovery.
type ToolHandlerRegistration struct {
	Name      string
	Factory   ToolHandlerFactory
	Priority  int
	IsBuiltin bool
}

// ToolHandlerRegistry is the process-wide, priority-ordered factory
// registry of spec.md §4.4. It is guarded by a plain mutex since
// registrations happen rarely (construction/plugin-load time), unlike
// the RWMutex-guarded per-server ToolManager above.
type ToolHandlerRegistry struct {
	mu            sync.Mutex
	registrations []ToolHandlerRegistration
	log           *zap.Logger
}

func NewToolHandlerRegistry(log *zap.Logger) *ToolHandlerRegistry {
	return &ToolHandlerRegistry{log: log}
}

// Register adds a registration, rejecting duplicate names, and keeps the
// list sorted descending by priority.
func (r *ToolHandlerRegistry) Register(reg ToolHandlerRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.registrations {
		if existing.Name == reg.Name {
			return ConfigErr("duplicate tool handler registration: %s", reg.Name)
		}
	}
	r.registrations = append(r.registrations, reg)
	sort.SliceStable(r.registrations, func(i, j int) bool {
		return r.registrations[i].Priority > r.registrations[j].Priority
	})
	return nil
}

func (r *ToolHandlerRegistry) Get(name string) (ToolHandlerRegistration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.Name == name {
			return reg, true
		}
	}
	return ToolHandlerRegistration{}, false
}

func (r *ToolHandlerRegistry) GetAll() []ToolHandlerRegistration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ToolHandlerRegistration, len(r.registrations))
	copy(out, r.registrations)
	return out
}

func (r *ToolHandlerRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = nil
}

// RegisterBuiltinHandlers registers the echo and calculator handlers at
// priority 100 if absent; a duplicate-name error from an already
// present registration is deliberately swallowed, per spec.md §4.4.
func (r *ToolHandlerRegistry) RegisterBuiltinHandlers() {
	_ = r.Register(ToolHandlerRegistration{
		Name:      "echo",
		Factory:   func() ToolHandler { return &EchoToolHandler{} },
		Priority:  100,
		IsBuiltin: true,
	})
	_ = r.Register(ToolHandlerRegistration{
		Name:      "calculator",
		Factory:   func() ToolHandler { return &CalculatorToolHandler{} },
		Priority:  100,
		IsBuiltin: true,
	})
}

// HandlerConfig is one explicit per-handler override in ToolsConfig.
type HandlerConfig struct {
	Name     string                 `koanf:"name"`
	Enabled  bool                   `koanf:"enabled"`
	Priority int                    `koanf:"priority"`
	Config   map[string]interface{} `koanf:"config"`
}

// ToolsConfig drives the discovery algorithm in spec.md §4.4.
type ToolsConfig struct {
	Handlers            []HandlerConfig `koanf:"handlers"`
	AutoDiscoverBuiltin bool            `koanf:"auto_discover_builtin"`
	EnableAllByDefault  bool            `koanf:"enable_all_by_default"`
}

// Discover produces the ordered list of handlers to instantiate given an
// optional config. With cfg == nil every built-in is instantiated.
// Factory failures are logged and the handler is skipped; they are not
// fatal to the discovery pass as a whole.
func (r *ToolHandlerRegistry) Discover(cfg *ToolsConfig) []ToolHandler {
	regs := r.GetAll()

	enabled := make([]ToolHandlerRegistration, 0, len(regs))
	for _, reg := range regs {
		if cfg == nil {
			if reg.IsBuiltin {
				enabled = append(enabled, reg)
			}
			continue
		}
		if explicit, ok := findHandlerConfig(cfg.Handlers, reg.Name); ok {
			if explicit.Enabled {
				enabled = append(enabled, reg)
			}
			continue
		}
		if reg.IsBuiltin && cfg.AutoDiscoverBuiltin && cfg.EnableAllByDefault {
			enabled = append(enabled, reg)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool { return enabled[i].Priority > enabled[j].Priority })

	out := make([]ToolHandler, 0, len(enabled))
	for _, reg := range enabled {
		handler, err := safeInstantiate(reg.Factory)
		if err != nil {
			if r.log != nil {
				r.log.Warn("tool handler factory failed", zap.String("name", reg.Name), zap.Error(err))
			}
			continue
		}
		out = append(out, handler)
	}
	return out
}

func findHandlerConfig(handlers []HandlerConfig, name string) (HandlerConfig, bool) {
	for _, h := range handlers {
		if h.Name == name {
			return h, true
		}
	}
	return HandlerConfig{}, false
}

func safeInstantiate(factory ToolHandlerFactory) (handler ToolHandler, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = InternalErr("tool handler factory panicked: %v", r)
		}
	}()
	return factory(), nil
}
