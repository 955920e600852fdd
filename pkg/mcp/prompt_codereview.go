package mcp

import (
	"encoding/json"
	"fmt"
)

// CodeReviewPrompt is the built-in prompt recovered from
// original_source/src/server/features/prompts.rs and
// original_source/src/protocol/handler.rs's setup_production.
var CodeReviewPrompt = Prompt{
	Name:        "code_review",
	Description: "Reviews a code snippet for correctness, style, and potential issues",
	Arguments: []PromptArgument{
		{Name: "code", Description: "The code to review", Required: true},
		{Name: "language", Description: "The programming language of the code", Required: false},
		{Name: "focus", Description: "A specific aspect to focus the review on", Required: false},
	},
}

// CodeReviewPromptGenerator expands the code_review prompt into a
// system + user message pair.
type CodeReviewPromptGenerator struct{}

func (g *CodeReviewPromptGenerator) Name() string { return "code_review" }

type codeReviewArgs struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Focus    string `json:"focus"`
}

func (g *CodeReviewPromptGenerator) ValidateArguments(args json.RawMessage) error {
	var a codeReviewArgs
	if len(args) == 0 {
		return InvalidParamsErr("missing required parameter: code")
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return InvalidParamsErr("invalid arguments: %v", err)
	}
	if a.Code == "" {
		return InvalidParamsErr("missing required parameter: code")
	}
	return nil
}

func (g *CodeReviewPromptGenerator) Generate(args json.RawMessage) (*PromptResult, error) {
	var a codeReviewArgs
	_ = json.Unmarshal(args, &a)

	language := a.Language
	if language == "" {
		language = "unknown"
	}

	system := "You are a careful code reviewer. Point out correctness bugs, style " +
		"deviations, and missed edge cases. Be concise."
	if a.Focus != "" {
		system += fmt.Sprintf(" Focus specifically on: %s.", a.Focus)
	}

	user := fmt.Sprintf("Review the following %s code:\n\n%s", language, a.Code)

	return &PromptResult{
		Description: CodeReviewPrompt.Description,
		Messages: []PromptMessage{
			{Role: RoleAssistant, Content: TextContent(system)},
			{Role: RoleUser, Content: TextContent(user)},
		},
	}, nil
}
