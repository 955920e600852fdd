package mcp

import (
	"encoding/json"
	"sort"
	"strconv"
	"sync"
)

// PromptGenerator expands a prompt's arguments into messages.
type PromptGenerator interface {
	Name() string
	Generate(args json.RawMessage) (*PromptResult, error)
	ValidateArguments(args json.RawMessage) error
}

// PromptManager holds the prompt registry and generator registry, keyed
// by prompt name, per spec.md §4.5.
type PromptManager struct {
	mu         sync.RWMutex
	prompts    map[string]Prompt
	generators map[string]PromptGenerator
}

func NewPromptManager() *PromptManager {
	return &PromptManager{
		prompts:    make(map[string]Prompt),
		generators: make(map[string]PromptGenerator),
	}
}

func (m *PromptManager) RegisterPrompt(p Prompt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts[p.Name] = p
}

func (m *PromptManager) UnregisterPrompt(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.prompts, name)
}

func (m *PromptManager) RegisterGenerator(g PromptGenerator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generators[g.Name()] = g
}

func (m *PromptManager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.prompts) > 0
}

// ListPrompts returns prompts sorted ascending by name, paginated at
// pageSize.
func (m *PromptManager) ListPrompts(cursor string) ([]Prompt, *string, error) {
	m.mu.RLock()
	all := make([]Prompt, 0, len(m.prompts))
	for _, p := range m.prompts {
		all = append(all, p)
	}
	m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	start, err := parseCursor(cursor)
	if err != nil {
		return nil, nil, err
	}
	if start >= len(all) {
		return []Prompt{}, nil, nil
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

// GetPromptWithArgs expands a prompt. A missing prompt fails with a
// Prompt error; a missing generator (prompt registered, no expander)
// returns an empty-messages result carrying the prompt's description
// rather than an error, per spec.md §4.5.
func (m *PromptManager) GetPromptWithArgs(name string, args json.RawMessage) (*PromptResult, error) {
	m.mu.RLock()
	prompt, hasPrompt := m.prompts[name]
	generator, hasGenerator := m.generators[name]
	m.mu.RUnlock()

	if !hasPrompt {
		return nil, PromptErr("prompt not found: %s", name)
	}
	if !hasGenerator {
		return &PromptResult{Description: prompt.Description, Messages: []PromptMessage{}}, nil
	}
	if err := generator.ValidateArguments(args); err != nil {
		return nil, err
	}
	return generator.Generate(args)
}
