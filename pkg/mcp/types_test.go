package mcp

import (
	"encoding/json"
	"testing"
)

func TestNewResponse(t *testing.T) {
	resp := NewResponse(json.RawMessage(`1`), json.RawMessage(`{"ok":true}`))
	if resp.JSONRPC != JSONRPCVersion {
		t.Errorf("JSONRPC = %q", resp.JSONRPC)
	}
	if resp.Error != nil {
		t.Error("Error should be nil on success")
	}
	if string(resp.Result) != `{"ok":true}` {
		t.Errorf("Result = %s", resp.Result)
	}
}

func TestNewErrorResponse(t *testing.T) {
	rpcErr := &JSONRPCError{Code: -32601, Message: "not found"}
	resp := NewErrorResponse(json.RawMessage(`1`), rpcErr)
	if resp.Result != nil {
		t.Error("Result should be nil on error")
	}
	if resp.Error != rpcErr {
		t.Error("Error should be the passed error")
	}
}

func TestTextContent(t *testing.T) {
	c := TextContent("hello")
	if c.Type != ContentText {
		t.Errorf("Type = %q, want %q", c.Type, ContentText)
	}
	if c.Text != "hello" {
		t.Errorf("Text = %q", c.Text)
	}
}

func TestToolResultJSONRoundtrip(t *testing.T) {
	tr := ToolResult{Content: []Content{TextContent("x")}, IsError: false}
	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got ToolResult
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Content) != 1 || got.Content[0].Text != "x" {
		t.Errorf("got = %+v", got)
	}
}

func TestServerCapabilitiesOmitsDisabledFamilies(t *testing.T) {
	caps := ServerCapabilities{Tools: &ToolsCapability{}}
	b, err := json.Marshal(caps)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["resources"]; ok {
		t.Error("resources capability should be omitted when nil")
	}
	if _, ok := raw["tools"]; !ok {
		t.Error("tools capability should be present")
	}
}
