package mcp

import (
	"encoding/json"
	"testing"
)

type fakePromptGenerator struct {
	name string
}

func (g *fakePromptGenerator) Name() string { return g.name }
func (g *fakePromptGenerator) ValidateArguments(args json.RawMessage) error {
	return nil
}
func (g *fakePromptGenerator) Generate(args json.RawMessage) (*PromptResult, error) {
	return &PromptResult{Messages: []PromptMessage{{Role: RoleUser, Content: TextContent("generated")}}}, nil
}

func TestPromptManagerRegisterAndList(t *testing.T) {
	m := NewPromptManager()
	if m.Enabled() {
		t.Error("empty manager should not be enabled")
	}
	m.RegisterPrompt(Prompt{Name: "greeting"})
	if !m.Enabled() {
		t.Error("manager with a registered prompt should be enabled")
	}

	list, _, err := m.ListPrompts("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].Name != "greeting" {
		t.Errorf("list = %+v", list)
	}
}

func TestPromptManagerGetPromptWithArgsNoGenerator(t *testing.T) {
	m := NewPromptManager()
	m.RegisterPrompt(Prompt{Name: "greeting", Description: "says hi"})

	result, err := m.GetPromptWithArgs("greeting", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Description != "says hi" {
		t.Errorf("Description = %q", result.Description)
	}
	if len(result.Messages) != 0 {
		t.Errorf("expected empty Messages, got %+v", result.Messages)
	}
}

func TestPromptManagerGetPromptWithArgsGenerator(t *testing.T) {
	m := NewPromptManager()
	m.RegisterPrompt(Prompt{Name: "greeting"})
	m.RegisterGenerator(&fakePromptGenerator{name: "greeting"})

	result, err := m.GetPromptWithArgs("greeting", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Messages) != 1 || result.Messages[0].Content.Text != "generated" {
		t.Errorf("Messages = %+v", result.Messages)
	}
}

func TestPromptManagerGetPromptWithArgsNotFound(t *testing.T) {
	m := NewPromptManager()
	if _, err := m.GetPromptWithArgs("missing", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for unregistered prompt")
	}
}

func TestPromptManagerListPromptsSorted(t *testing.T) {
	m := NewPromptManager()
	m.RegisterPrompt(Prompt{Name: "zebra"})
	m.RegisterPrompt(Prompt{Name: "apple"})

	list, _, err := m.ListPrompts("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "apple" || list[1].Name != "zebra" {
		t.Errorf("list not sorted: %+v", list)
	}
}
