package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usdforge/nimusd/internal/adapter"
	"github.com/usdforge/nimusd/internal/nimerr"
	"github.com/usdforge/nimusd/internal/redact"
)

// Tool names as registered with the host.
const (
	ToolGenerate = "generate_usd_code"
	ToolValidate = "validate_usd_code"
)

// GenerateInput is the input schema for generate_usd_code.
type GenerateInput struct {
	Prompt  string `json:"prompt" jsonschema:"Description of the USD Python code to generate"`
	Context string `json:"context,omitempty" jsonschema:"Optional context about the project or requirements"`
}

// ValidateInput is the input schema for validate_usd_code.
type ValidateInput struct {
	Code    string `json:"code" jsonschema:"USD Python code to validate"`
	Context string `json:"context,omitempty" jsonschema:"Optional context about what the code does"`
}

// GenerateOutput is the structured content of a successful generation.
type GenerateOutput struct {
	Code      string `json:"code"`
	Model     string `json:"model,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ToolError is the structured content of a failed call.
type ToolError struct {
	Kind    nimerr.Kind `json:"kind"`
	Message string      `json:"message"`
}

func boolPtr(b bool) *bool { return &b }

func registerTools(server *mcp.Server, a *adapter.Adapter) {
	annotations := &mcp.ToolAnnotations{
		ReadOnlyHint:    true,
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(true),
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGenerate,
		Description: "Generate USD Python code from a natural-language description using NVIDIA NIM. Returns the code without markdown fences.",
		Annotations: annotations,
	}, generateHandler(a))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolValidate,
		Description: "Review USD Python code using NVIDIA NIM. Returns a JSON verdict with errors, warnings, suggestions and an assessment.",
		Annotations: annotations,
	}, validateHandler(a))
}

func generateHandler(a *adapter.Adapter) mcp.ToolHandlerFor[GenerateInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in GenerateInput) (*mcp.CallToolResult, any, error) {
		res, err := a.Invoke(ctx, string(adapter.OpGenerate), toolArgs(adapter.ArgPrompt, in.Prompt, in.Context))
		if err != nil {
			return errorResult(err), nil, nil
		}
		out := GenerateOutput{Code: res.Generation.Code, Model: res.Model, RequestID: res.RequestID}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: out.Code}},
			StructuredContent: out,
		}, nil, nil
	}
}

func validateHandler(a *adapter.Adapter) mcp.ToolHandlerFor[ValidateInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ValidateInput) (*mcp.CallToolResult, any, error) {
		res, err := a.Invoke(ctx, string(adapter.OpValidate), toolArgs(adapter.ArgCode, in.Code, in.Context))
		if err != nil {
			return errorResult(err), nil, nil
		}
		text, err := json.MarshalIndent(res.Validation, "", "  ")
		if err != nil {
			return errorResult(nimerr.Wrap(nimerr.Internal, err, "encoding validation result")), nil, nil
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
			StructuredContent: res.Validation,
		}, nil, nil
	}
}

func toolArgs(key, value, contextText string) map[string]any {
	args := map[string]any{key: value}
	if contextText != "" {
		args[adapter.ArgContext] = contextText
	}
	return args
}

// errorResult reports a failure in-band so the host model can read the
// kind and react, instead of a protocol-level error.
func errorResult(err error) *mcp.CallToolResult {
	e := nimerr.From(err)
	te := ToolError{Kind: e.Kind, Message: redact.String(e.Error())}
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: string(te.Kind) + ": " + te.Message}},
		StructuredContent: te,
	}
}
