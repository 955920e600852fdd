// Package mcp provides a Model Context Protocol server implementation over
// a JSON-RPC 2.0 streamable HTTP transport with Server-Sent Events.
//
// The package exposes three feature families — resources, tools, and
// prompts — behind pluggable provider/handler/generator interfaces, and
// a protocol dispatcher that enforces the MCP initialize handshake,
// request lifecycle, and method routing table.
package mcp

import "encoding/json"

// ProtocolVersion is the MCP protocol version this server negotiates.
const ProtocolVersion = "2025-03-26"

// JSONRPCVersion is the only accepted value of the "jsonrpc" field.
const JSONRPCVersion = "2.0"

// RequestID is a JSON-RPC request identifier: a non-null JSON string or
// number. It is carried as json.RawMessage so the dispatcher can echo it
// back verbatim without forcing a type on the caller.
type RequestID = json.RawMessage

// JSONRPCError is the error object embedded in a JSONRPCResponse.
type JSONRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// JSONRPCRequest is a JSON-RPC request carrying a response-expecting id.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestID       `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCNotification is a JSON-RPC request with no id; it never produces
// a response.
type JSONRPCNotification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is a JSON-RPC response; exactly one of Result/Error is set.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestID       `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// NewResponse builds a successful response.
func NewResponse(id RequestID, result json.RawMessage) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

// NewErrorResponse builds an error response.
func NewErrorResponse(id RequestID, err *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Error: err}
}

// messageKind tags what parse classified a raw JSON payload as.
type messageKind int

const (
	kindRequest messageKind = iota
	kindNotification
	kindResponse
	kindBatch
)

// ServerInfo identifies the server in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientInfo identifies the client in the initialize handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities is the client's declared capability set. Fields are
// left as raw presence markers since the server does not branch on their
// contents beyond whether they are present.
type ClientCapabilities struct {
	Roots    *RootsCapability    `json:"roots,omitempty"`
	Sampling *SamplingCapability `json:"sampling,omitempty"`
}

type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type SamplingCapability struct{}

// ServerCapabilities advertises which feature families this server
// exposes; only families whose manager reports enabled are present.
type ServerCapabilities struct {
	Resources  *ResourcesCapability `json:"resources,omitempty"`
	Tools      *ToolsCapability     `json:"tools,omitempty"`
	Prompts    *PromptsCapability   `json:"prompts,omitempty"`
	Sampling   *SamplingCapability  `json:"sampling,omitempty"`
	Logging    *struct{}            `json:"logging,omitempty"`
	Completion *struct{}            `json:"completion,omitempty"`
}

type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// InitializeParams is the params of the "initialize" request.
type InitializeParams struct {
	ProtocolVersion string              `json:"protocolVersion"`
	Capabilities    ClientCapabilities  `json:"capabilities"`
	ClientInfo      ClientInfo          `json:"clientInfo"`
}

// InitializeResult is the result of the "initialize" request.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// Annotations carries optional hints attached to resources and content.
type Annotations struct {
	Audience []string `json:"audience,omitempty"`
	Priority *float64 `json:"priority,omitempty"`
}

// Resource describes a single addressable piece of context.
type Resource struct {
	URI         string       `json:"uri"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	MimeType    string       `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	Size        *int64       `json:"size,omitempty"`
}

// ResourceTemplate describes a parameterized family of resources.
type ResourceTemplate struct {
	URITemplate string       `json:"uriTemplate"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	MimeType    string       `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// ResourceContents is the tagged result of reading a resource: either
// Text or Blob is set, never both.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// Tool describes an invocable function and its JSON-schema input shape.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Annotations *Annotations    `json:"annotations,omitempty"`
}

// ContentKind tags the variant of a Content union value.
type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentImage    ContentKind = "image"
	ContentAudio    ContentKind = "audio"
	ContentResource ContentKind = "resource"
)

// Content is the tagged union {Text, Image, Audio, ResourceRef} carried
// in tool results and prompt messages.
type Content struct {
	Type        ContentKind       `json:"type"`
	Text        string            `json:"text,omitempty"`
	Data        string            `json:"data,omitempty"`
	MimeType    string            `json:"mimeType,omitempty"`
	Resource    *ResourceContents `json:"resource,omitempty"`
	Annotations *Annotations      `json:"annotations,omitempty"`
}

// TextContent builds a ContentText item.
func TextContent(text string) Content {
	return Content{Type: ContentText, Text: text}
}

// ToolResult is the outcome of a tools/call invocation. IsError marks an
// intentional, user-visible tool failure; it is never a protocol error.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// PromptArgument describes one named argument a prompt accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Prompt describes a named, templated message generator.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// Role is the speaker of a PromptMessage: "user" or "assistant".
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PromptMessage is one message produced by expanding a prompt.
type PromptMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// PromptResult is the outcome of prompts/get.
type PromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// LoggingLevel is one of the eight POSIX syslog severities.
type LoggingLevel string

const (
	LogDebug     LoggingLevel = "debug"
	LogInfo      LoggingLevel = "info"
	LogNotice    LoggingLevel = "notice"
	LogWarning   LoggingLevel = "warning"
	LogError     LoggingLevel = "error"
	LogCritical  LoggingLevel = "critical"
	LogAlert     LoggingLevel = "alert"
	LogEmergency LoggingLevel = "emergency"
)

// paginatedResourcesResult, paginatedToolsResult and paginatedPromptsResult
// carry a page plus an opaque cursor for the next page, or nil when the
// list is exhausted.
type paginatedResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor *string    `json:"nextCursor,omitempty"`
}

type paginatedTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
	NextCursor        *string            `json:"nextCursor,omitempty"`
}

type paginatedToolsResult struct {
	Tools      []Tool  `json:"tools"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

type paginatedPromptsResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor *string  `json:"nextCursor,omitempty"`
}

const pageSize = 50
