package mcp

import (
	"encoding/json"
	"strings"
)

// ParsedMessage is the result of sniffing one raw JSON payload into its
// JSON-RPC shape. Exactly one of the typed fields is non-nil, unless Kind
// is kindBatch, in which case Batch holds the recursively parsed elements.
type ParsedMessage struct {
	Kind         messageKind
	Request      *JSONRPCRequest
	Notification *JSONRPCNotification
	Response     *JSONRPCResponse
	Batch        []ParsedMessage
}

// ParseMessage classifies and decodes a raw JSON-RPC payload. Go has no
// untagged-union deserialization, so the classification is done on the
// raw shape: an array is a batch; an object with both "method" and "id"
// is a request; "method" without "id" is a notification; "result" or
// "error" is a response.
func ParseMessage(data []byte) (*ParsedMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, ParseErr("empty message body")
	}

	if trimmed[0] == '[' {
		var rawElems []json.RawMessage
		if err := json.Unmarshal(data, &rawElems); err != nil {
			return nil, ParseErr("invalid batch: %v", err)
		}
		if len(rawElems) == 0 {
			return nil, InvalidRequestErr("batch must not be empty")
		}
		batch := make([]ParsedMessage, 0, len(rawElems))
		for _, elem := range rawElems {
			parsed, err := ParseMessage(elem)
			if err != nil {
				return nil, err
			}
			batch = append(batch, *parsed)
		}
		return &ParsedMessage{Kind: kindBatch, Batch: batch}, nil
	}

	var shape struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Method  *string         `json:"method"`
		Result  json.RawMessage `json:"result"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, ParseErr("invalid message: %v", err)
	}

	hasID := len(shape.ID) > 0

	switch {
	case shape.Method != nil && hasID:
		var req JSONRPCRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, ParseErr("invalid request: %v", err)
		}
		return &ParsedMessage{Kind: kindRequest, Request: &req}, nil
	case shape.Method != nil:
		var note JSONRPCNotification
		if err := json.Unmarshal(data, &note); err != nil {
			return nil, ParseErr("invalid notification: %v", err)
		}
		return &ParsedMessage{Kind: kindNotification, Notification: &note}, nil
	case shape.Result != nil || shape.Error != nil:
		var resp JSONRPCResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, ParseErr("invalid response: %v", err)
		}
		return &ParsedMessage{Kind: kindResponse, Response: &resp}, nil
	default:
		return nil, InvalidRequestErr("message has neither method nor result/error")
	}
}

// SerializeMessage serializes any single JSON-RPC value to compact JSON.
func SerializeMessage(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// validMethodPrefixes mirrors original_source/src/protocol/validation.rs.
var validMethodPrefixes = []string{
	"initialize",
	"ping",
	"notifications/",
	"resources/",
	"prompts/",
	"tools/",
	"sampling/",
	"logging/",
	"completion/",
	"roots/",
}

// ValidateMethodName enforces the MCP method namespace allow-list.
func ValidateMethodName(method string) error {
	if method == "" {
		return InvalidRequestErr("method name cannot be empty")
	}
	for _, prefix := range validMethodPrefixes {
		if strings.HasPrefix(method, prefix) {
			return nil
		}
	}
	return MethodNotFoundErr(method)
}

// ValidateRequest enforces JSON-RPC version and non-null, non-empty id.
func ValidateRequest(req *JSONRPCRequest) error {
	if req.JSONRPC != JSONRPCVersion {
		return InvalidRequestErr("invalid JSON-RPC version: expected %q, got %q", JSONRPCVersion, req.JSONRPC)
	}
	if req.Method == "" {
		return InvalidRequestErr("method name cannot be empty")
	}
	idStr := strings.TrimSpace(string(req.ID))
	if idStr == "" || idStr == "null" {
		return InvalidRequestErr("request id must not be null")
	}
	if idStr == `""` {
		return InvalidRequestErr("request id cannot be empty string")
	}
	return nil
}

// ValidateNotification enforces JSON-RPC version and a non-empty method.
func ValidateNotification(note *JSONRPCNotification) error {
	if note.JSONRPC != JSONRPCVersion {
		return InvalidRequestErr("invalid JSON-RPC version: expected %q, got %q", JSONRPCVersion, note.JSONRPC)
	}
	if note.Method == "" {
		return InvalidRequestErr("method name cannot be empty")
	}
	return nil
}

// ValidateURI requires a scheme separator or a file: prefix.
func ValidateURI(uri string) error {
	if uri == "" {
		return InvalidParamsErr("URI cannot be empty")
	}
	if !strings.Contains(uri, "://") && !strings.HasPrefix(uri, "file:") {
		return InvalidParamsErr("invalid URI format: %s", uri)
	}
	return nil
}

// ValidateMimeType requires exactly one non-empty-sided "/".
func ValidateMimeType(mime string) error {
	if mime == "" {
		return InvalidParamsErr("MIME type cannot be empty")
	}
	parts := strings.Split(mime, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return InvalidParamsErr("invalid MIME type format: %s", mime)
	}
	return nil
}

// ValidatePriority requires 0.0 <= p <= 1.0.
func ValidatePriority(p float64) error {
	if p < 0.0 || p > 1.0 {
		return InvalidParamsErr("priority must be between 0.0 and 1.0, got: %v", p)
	}
	return nil
}

// ValidateRole requires "user" or "assistant".
func ValidateRole(role string) error {
	if role != string(RoleUser) && role != string(RoleAssistant) {
		return InvalidParamsErr("invalid role: %s. Valid roles are: user, assistant", role)
	}
	return nil
}

var validLoggingLevels = map[string]bool{
	"debug": true, "info": true, "notice": true, "warning": true,
	"error": true, "critical": true, "alert": true, "emergency": true,
}

// ValidateLoggingLevel requires one of the eight POSIX severities.
func ValidateLoggingLevel(level string) error {
	if !validLoggingLevels[level] {
		return InvalidParamsErr("invalid logging level: %s", level)
	}
	return nil
}

// ValidateCursor rejects an empty cursor; any other string is accepted.
func ValidateCursor(cursor string) error {
	if cursor == "" {
		return InvalidParamsErr("cursor cannot be empty")
	}
	return nil
}
