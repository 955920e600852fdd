package mcp

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SamplingProvider, CompletionProvider, and RootsEnumerator are the
// opaque collaborator interfaces named in spec.md §6; the core only
// calls through them, it never implements LLM inference itself.
type SamplingProvider interface {
	CreateMessage(params json.RawMessage) (json.RawMessage, error)
}

type CompletionProvider interface {
	Complete(params json.RawMessage) (json.RawMessage, error)
}

type RootsEnumerator interface {
	ListRoots() (json.RawMessage, error)
}

// Dispatcher is the protocol dispatcher of spec.md §4.6: it owns the
// three feature managers, the session store, the initialized flag, and
// the active-requests table, and is the single entry point that turns a
// parsed JSON-RPC message into zero or one responses.
type Dispatcher struct {
	Resources *ResourceManager
	Tools     *ToolManager
	Prompts   *PromptManager
	Sessions  *SessionStore

	Sampling   SamplingProvider
	Completion CompletionProvider
	Roots      RootsEnumerator

	log *zap.Logger

	mu          sync.RWMutex
	initialized bool

	activeMu      sync.Mutex
	activeRequests map[string]time.Time

	loggingLevel LoggingLevel
}

// NewDispatcher constructs a dispatcher wired to the three managers and
// the session store. Sampling/Completion/Roots may be nil: the
// corresponding methods then fail with InternalErr rather than panic.
func NewDispatcher(resources *ResourceManager, tools *ToolManager, prompts *PromptManager, sessions *SessionStore, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		Resources:      resources,
		Tools:          tools,
		Prompts:        prompts,
		Sessions:       sessions,
		log:            log,
		activeRequests: make(map[string]time.Time),
		loggingLevel:   LogInfo,
	}
}

func (d *Dispatcher) isInitialized() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.initialized
}

func (d *Dispatcher) setInitialized() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = true
}

// HandleParsed dispatches one already-classified message. A Request
// always produces exactly one response; a Notification or Response never
// does. A Batch is not dispatched here and yields nil; use HandleBatch
// for its elements.
func (d *Dispatcher) HandleParsed(msg *ParsedMessage) *JSONRPCResponse {
	switch msg.Kind {
	case kindRequest:
		return d.handleRequest(msg.Request)
	case kindNotification:
		d.handleNotification(msg.Notification)
		return nil
	case kindResponse:
		if d.log != nil {
			d.log.Debug("received inbound response", zap.ByteString("id", msg.Response.ID))
		}
		return nil
	default:
		return nil
	}
}

// HandleBatch dispatches every element of a batch, preserving order, and
// returns only the elements that produced a response.
func (d *Dispatcher) HandleBatch(batch []ParsedMessage) []*JSONRPCResponse {
	out := make([]*JSONRPCResponse, 0, len(batch))
	for i := range batch {
		if resp := d.HandleParsed(&batch[i]); resp != nil {
			out = append(out, resp)
		}
	}
	return out
}

func idKey(id RequestID) string { return string(id) }

func (d *Dispatcher) handleRequest(req *JSONRPCRequest) *JSONRPCResponse {
	if err := ValidateRequest(req); err != nil {
		return NewErrorResponse(req.ID, ToJSONRPCError(err))
	}
	if err := ValidateMethodName(req.Method); err != nil {
		return NewErrorResponse(req.ID, ToJSONRPCError(err))
	}

	if !d.isInitialized() && req.Method != "initialize" && req.Method != "ping" {
		return NewErrorResponse(req.ID, ToJSONRPCError(InternalErr("Server not initialized")))
	}

	d.activeMu.Lock()
	d.activeRequests[idKey(req.ID)] = time.Now()
	d.activeMu.Unlock()
	defer func() {
		d.activeMu.Lock()
		delete(d.activeRequests, idKey(req.ID))
		d.activeMu.Unlock()
	}()

	RecordRequest(req.Method)
	result, err := d.routeRequest(req.Method, req.Params)
	if err != nil {
		if d.log != nil {
			d.log.Warn("request failed", zap.String("method", req.Method), zap.Error(err))
		}
		return NewErrorResponse(req.ID, ToJSONRPCError(err))
	}
	return NewResponse(req.ID, result)
}

func (d *Dispatcher) routeRequest(method string, params json.RawMessage) (json.RawMessage, error) {
	switch method {
	case "initialize":
		return d.handleInitialize(params)
	case "ping":
		return json.RawMessage(`{}`), nil
	case "resources/list":
		return d.handleResourcesList(params)
	case "resources/templates/list":
		return d.handleResourcesTemplatesList(params)
	case "resources/read":
		return d.handleResourcesRead(params)
	case "resources/subscribe":
		return d.handleResourcesSubscribe(params)
	case "resources/unsubscribe":
		return d.handleResourcesUnsubscribe(params)
	case "tools/list":
		return d.handleToolsList(params)
	case "tools/call":
		return d.handleToolsCall(params)
	case "prompts/list":
		return d.handlePromptsList(params)
	case "prompts/get":
		return d.handlePromptsGet(params)
	case "sampling/createMessage":
		if d.Sampling == nil {
			return nil, InternalErr("sampling is not configured")
		}
		return d.Sampling.CreateMessage(params)
	case "logging/setLevel":
		return d.handleLoggingSetLevel(params)
	case "completion/complete":
		if d.Completion == nil {
			return nil, InternalErr("completion is not configured")
		}
		return d.Completion.Complete(params)
	case "roots/list":
		if d.Roots == nil {
			return nil, InternalErr("roots are not configured")
		}
		return d.Roots.ListRoots()
	default:
		return nil, MethodNotFoundErr(method)
	}
}

func (d *Dispatcher) handleNotification(note *JSONRPCNotification) {
	if err := ValidateNotification(note); err != nil {
		if d.log != nil {
			d.log.Warn("invalid notification", zap.Error(err))
		}
		return
	}

	switch note.Method {
	case "notifications/initialized":
		d.setInitialized()
	case "notifications/cancelled":
		var p struct {
			RequestID RequestID `json:"requestId"`
		}
		if err := json.Unmarshal(note.Params, &p); err == nil {
			d.activeMu.Lock()
			delete(d.activeRequests, idKey(p.RequestID))
			d.activeMu.Unlock()
		}
	default:
		if d.log != nil {
			d.log.Debug("unhandled notification", zap.String("method", note.Method))
		}
	}
}

func (d *Dispatcher) handleInitialize(params json.RawMessage) (json.RawMessage, error) {
	var req InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, InvalidParamsErr("invalid initialize params: %v", err)
		}
	}
	if req.ProtocolVersion != "" && req.ProtocolVersion != ProtocolVersion && d.log != nil {
		d.log.Warn("client requested a different protocol version",
			zap.String("requested", req.ProtocolVersion), zap.String("server", ProtocolVersion))
	}

	caps := ServerCapabilities{}
	if d.Resources.Enabled() {
		caps.Resources = &ResourcesCapability{Subscribe: true, ListChanged: true}
	}
	if d.Tools.Enabled() {
		caps.Tools = &ToolsCapability{ListChanged: false}
	}
	if d.Prompts.Enabled() {
		caps.Prompts = &PromptsCapability{ListChanged: false}
	}

	d.setInitialized()

	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    caps,
		ServerInfo:      ServerInfo{Name: "mcp-go-server", Version: "1.0.0"},
	}
	return json.Marshal(result)
}

func requireString(params json.RawMessage, field string) (string, error) {
	var m map[string]json.RawMessage
	if len(params) > 0 {
		if err := json.Unmarshal(params, &m); err != nil {
			return "", InvalidParamsErr("invalid params: %v", err)
		}
	}
	raw, ok := m[field]
	if !ok {
		return "", InvalidParamsErr("missing required parameter: %s", field)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", InvalidParamsErr("parameter %s must be a string", field)
	}
	return s, nil
}

func optionalCursor(params json.RawMessage) string {
	var p struct {
		Cursor string `json:"cursor"`
	}
	_ = json.Unmarshal(params, &p)
	return p.Cursor
}

func (d *Dispatcher) handleResourcesList(params json.RawMessage) (json.RawMessage, error) {
	list, next, err := d.Resources.ListResources(optionalCursor(params))
	if err != nil {
		return nil, err
	}
	return json.Marshal(paginatedResourcesResult{Resources: list, NextCursor: next})
}

func (d *Dispatcher) handleResourcesTemplatesList(params json.RawMessage) (json.RawMessage, error) {
	list, next, err := d.Resources.ListTemplates(optionalCursor(params))
	if err != nil {
		return nil, err
	}
	return json.Marshal(paginatedTemplatesResult{ResourceTemplates: list, NextCursor: next})
}

func (d *Dispatcher) handleResourcesRead(params json.RawMessage) (json.RawMessage, error) {
	uri, err := requireString(params, "uri")
	if err != nil {
		return nil, err
	}
	contents, err := d.Resources.ReadResource(uri)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Contents []ResourceContents `json:"contents"`
	}{Contents: contents})
}

func resourceSubscriptionClientID(params json.RawMessage) string {
	var p struct {
		ClientID string `json:"clientId"`
	}
	_ = json.Unmarshal(params, &p)
	if p.ClientID == "" {
		return "default"
	}
	return p.ClientID
}

func (d *Dispatcher) handleResourcesSubscribe(params json.RawMessage) (json.RawMessage, error) {
	uri, err := requireString(params, "uri")
	if err != nil {
		return nil, err
	}
	if err := d.Resources.Subscribe(uri, resourceSubscriptionClientID(params)); err != nil {
		return nil, err
	}
	return json.RawMessage(`{}`), nil
}

func (d *Dispatcher) handleResourcesUnsubscribe(params json.RawMessage) (json.RawMessage, error) {
	uri, err := requireString(params, "uri")
	if err != nil {
		return nil, err
	}
	if err := d.Resources.Unsubscribe(uri, resourceSubscriptionClientID(params)); err != nil {
		return nil, err
	}
	return json.RawMessage(`{}`), nil
}

func (d *Dispatcher) handleToolsList(params json.RawMessage) (json.RawMessage, error) {
	list, next, err := d.Tools.ListTools(optionalCursor(params))
	if err != nil {
		return nil, err
	}
	return json.Marshal(paginatedToolsResult{Tools: list, NextCursor: next})
}

func (d *Dispatcher) handleToolsCall(params json.RawMessage) (json.RawMessage, error) {
	var p struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, InvalidParamsErr("invalid params: %v", err)
		}
	}
	if p.Name == "" {
		return nil, InvalidParamsErr("missing required parameter: name")
	}
	result, err := d.Tools.CallTool(p.Name, p.Arguments)
	if err != nil {
		return nil, err
	}
	RecordToolCall(p.Name, result.IsError)
	return json.Marshal(result)
}

func (d *Dispatcher) handlePromptsList(params json.RawMessage) (json.RawMessage, error) {
	list, next, err := d.Prompts.ListPrompts(optionalCursor(params))
	if err != nil {
		return nil, err
	}
	return json.Marshal(paginatedPromptsResult{Prompts: list, NextCursor: next})
}

func (d *Dispatcher) handlePromptsGet(params json.RawMessage) (json.RawMessage, error) {
	var p struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, InvalidParamsErr("invalid params: %v", err)
		}
	}
	if p.Name == "" {
		return nil, InvalidParamsErr("missing required parameter: name")
	}
	result, err := d.Prompts.GetPromptWithArgs(p.Name, p.Arguments)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

func (d *Dispatcher) handleLoggingSetLevel(params json.RawMessage) (json.RawMessage, error) {
	level, err := requireString(params, "level")
	if err != nil {
		return nil, err
	}
	if err := ValidateLoggingLevel(level); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.loggingLevel = LoggingLevel(level)
	d.mu.Unlock()
	return json.RawMessage(`{}`), nil
}

// Bootstrap registers the built-in tool handlers, the filesystem and
// HTTP resource providers, and the code_review prompt, mirroring
// original_source/src/protocol/handler.rs's setup_production. It runs in
// the background at construction time per spec.md §4.6; failures are
// logged but never block server startup.
func (d *Dispatcher) Bootstrap(registry *ToolHandlerRegistry, toolsCfg *ToolsConfig, fsRoot, gitRoot string) {
	go func() {
		registry.RegisterBuiltinHandlers()
		for _, handler := range registry.Discover(toolsCfg) {
			d.Tools.RegisterHandlerWithTool(handler)
		}

		if fsRoot != "" {
			fsProvider, err := NewFileSystemProvider(fsRoot, d.log)
			if err != nil {
				if d.log != nil {
					d.log.Warn("failed to bootstrap filesystem provider", zap.Error(err))
				}
			} else {
				d.Resources.RegisterProvider(fsProvider)
			}
		}
		if gitRoot != "" {
			gitProvider, err := NewGitResourceProvider(gitRoot)
			if err != nil {
				if d.log != nil {
					d.log.Warn("failed to bootstrap git provider", zap.Error(err))
				}
			} else {
				d.Resources.RegisterProvider(gitProvider)
			}
		}
		d.Resources.RegisterProvider(NewHttpProvider())
		d.Resources.RegisterProvider(NewGitHubResourceProvider(nil))

		d.Prompts.RegisterPrompt(CodeReviewPrompt)
		d.Prompts.RegisterGenerator(&CodeReviewPromptGenerator{})
	}()
}
