// Package llm abstracts the chat-completion providers the orchestration
// loop talks to. Each provider speaks its own wire protocol but exposes the
// same Complete contract with structured tool calling.
package llm

import (
	"context"

	"appforge/internal/tools"
)

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation entry.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant messages that requested tools.
	ToolCalls []tools.Call

	// ToolCallID and Name are set on tool result messages and pair the
	// result with the assistant call that produced it.
	ToolCallID string
	Name       string
}

// Completion is one model reply: text, tool call requests, or both.
type Completion struct {
	Content   string
	ToolCalls []tools.Call
}

// ToolDef is the provider-facing declaration of one tool.
type ToolDef struct {
	Name        string
	Description string
	Parameters  tools.Schema
}

// Provider is a chat-completion backend with tool calling.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []Message, defs []ToolDef) (*Completion, error)
}

// Definitions converts registered tools into provider declarations.
func Definitions(list []*tools.Tool) []ToolDef {
	defs := make([]ToolDef, len(list))
	for i, t := range list {
		defs[i] = ToolDef{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema,
		}
	}
	return defs
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolResultMessage builds the tool message feeding one result back to the
// model as the next turn's context.
func ToolResultMessage(call tools.Call, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		Name:       call.Name,
	}
}
