// Package prompt builds the chat requests sent to the USD code model for the
// generate and validate operations.
package prompt

import (
	"strings"

	"github.com/usdforge/nimusd/internal/llm"
	"github.com/usdforge/nimusd/internal/nimerr"
)

// Sampling temperatures per operation. Validation runs cooler so the reply
// sticks to the section grammar.
const (
	GenerateTemperature = 0.7
	ValidateTemperature = 0.3
)

// Section markers the validate prompt requires in the model's reply. The
// interpreter parses against exactly these labels.
const (
	MarkerValid       = "VALID"
	MarkerErrors      = "ERRORS"
	MarkerWarnings    = "WARNINGS"
	MarkerSuggestions = "SUGGESTIONS"
	MarkerAssessment  = "ASSESSMENT"
)

const generateSystem = `You are a USD (Universal Scene Description) code assistant specialised in code generation.
Generate clean, well-commented USD Python code following best practices:
- Use proper pxr imports
- Include error handling
- Add helpful comments for USD concepts
- Follow PEP 8 style guidelines
- Use pathlib for file operations
Reply with the code only, in a single python code block.`

const validateSystem = `You are a USD (Universal Scene Description) code assistant specialised in code review.
Review the USD code you are given for syntax errors, USD API misuse and best practice violations.

Reply using exactly these five sections, in this order, each label at the start of its own line:
VALID: yes or no
ERRORS:
- one error per line
WARNINGS:
- one warning per line
SUGGESTIONS:
- one suggestion per line
ASSESSMENT: a short overall assessment

Write "none" under a section that has no items. Do not use JSON or any other format.`

// Generate builds the request for generating USD code from a description.
// contextText is optional.
func Generate(promptText, contextText string) (llm.ChatRequest, error) {
	if strings.TrimSpace(promptText) == "" {
		return llm.ChatRequest{}, nimerr.New(nimerr.InvalidArgument, "prompt must not be empty")
	}

	var user strings.Builder
	if c := strings.TrimSpace(contextText); c != "" {
		user.WriteString("Context: ")
		user.WriteString(c)
		user.WriteString("\n\n")
	}
	user.WriteString(promptText)

	return llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: generateSystem},
			{Role: llm.RoleUser, Content: user.String()},
		},
		Temperature: llm.Float(GenerateTemperature),
	}, nil
}

// Validate builds the request for reviewing USD code. contextText is
// optional and describes what the code is meant to do.
func Validate(codeText, contextText string) (llm.ChatRequest, error) {
	if strings.TrimSpace(codeText) == "" {
		return llm.ChatRequest{}, nimerr.New(nimerr.InvalidArgument, "code must not be empty")
	}

	var user strings.Builder
	user.WriteString("Code to validate:\n```python\n")
	user.WriteString(codeText)
	if !strings.HasSuffix(codeText, "\n") {
		user.WriteString("\n")
	}
	user.WriteString("```")
	if c := strings.TrimSpace(contextText); c != "" {
		user.WriteString("\n\nContext: ")
		user.WriteString(c)
	}

	return llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: validateSystem},
			{Role: llm.RoleUser, Content: user.String()},
		},
		Temperature: llm.Float(ValidateTemperature),
	}, nil
}
