package mcp

import "encoding/json"

// EchoToolHandler returns its single string argument unchanged, grounded
// on original_source/src/server/features/tools.rs's EchoToolHandler.
type EchoToolHandler struct{}

func (h *EchoToolHandler) Name() string        { return "echo" }
func (h *EchoToolHandler) Description() string { return "Echoes the provided message back" }

func (h *EchoToolHandler) InputSchema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"message":{"type":"string"}},"required":["message"]}`)
}

type echoArgs struct {
	Message string `json:"message"`
}

func (h *EchoToolHandler) ValidateArguments(args json.RawMessage) error {
	var a echoArgs
	if len(args) == 0 {
		return InvalidParamsErr("missing required parameter: message")
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return InvalidParamsErr("invalid arguments: %v", err)
	}
	if a.Message == "" {
		return InvalidParamsErr("missing required parameter: message")
	}
	return nil
}

func (h *EchoToolHandler) Execute(args json.RawMessage) (*ToolResult, error) {
	var a echoArgs
	_ = json.Unmarshal(args, &a)
	return &ToolResult{Content: []Content{TextContent(a.Message)}, IsError: false}, nil
}

// CalculatorToolHandler implements add/subtract/multiply/divide,
// grounded on original_source/src/server/features/tools.rs's
// CalculatorToolHandler. Divide-by-zero is a user-visible tool failure
// (IsError:true), not a protocol error, per spec.md §7 and scenario 4 of
// §8.
type CalculatorToolHandler struct{}

func (h *CalculatorToolHandler) Name() string { return "calculator" }
func (h *CalculatorToolHandler) Description() string {
	return "Performs add, subtract, multiply, or divide on two numbers"
}

func (h *CalculatorToolHandler) InputSchema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"operation":{"type":"string"},"a":{"type":"number"},"b":{"type":"number"}},"required":["operation","a","b"]}`)
}

type calculatorArgs struct {
	Operation string  `json:"operation"`
	A         float64 `json:"a"`
	B         float64 `json:"b"`
}

func (h *CalculatorToolHandler) ValidateArguments(args json.RawMessage) error {
	if len(args) == 0 {
		return InvalidParamsErr("missing required parameters: operation, a, b")
	}
	var a calculatorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return InvalidParamsErr("invalid arguments: %v", err)
	}
	switch a.Operation {
	case "add", "subtract", "multiply", "divide":
	default:
		return InvalidParamsErr("unknown operation: %s", a.Operation)
	}
	return nil
}

func (h *CalculatorToolHandler) Execute(args json.RawMessage) (*ToolResult, error) {
	var a calculatorArgs
	_ = json.Unmarshal(args, &a)

	var result float64
	switch a.Operation {
	case "add":
		result = a.A + a.B
	case "subtract":
		result = a.A - a.B
	case "multiply":
		result = a.A * a.B
	case "divide":
		if a.B == 0 {
			return &ToolResult{
				Content: []Content{TextContent("Division by zero")},
				IsError: true,
			}, nil
		}
		result = a.A / a.B
	}

	text := formatCalculation(a, result)
	return &ToolResult{Content: []Content{TextContent(text)}, IsError: false}, nil
}

func formatCalculation(a calculatorArgs, result float64) string {
	symbol := map[string]string{"add": "+", "subtract": "-", "multiply": "*", "divide": "/"}[a.Operation]
	return jsonNum(a.A) + " " + symbol + " " + jsonNum(a.B) + " = " + jsonNum(result)
}

func jsonNum(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
