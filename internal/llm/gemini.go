package llm

import (
	"context"
	"fmt"

	"appforge/internal/logging"
	"appforge/internal/tools"

	"google.golang.org/genai"
)

// GeminiClient implements Provider against the Gemini API via the official
// SDK. Used as the cross-vendor fallback behind the OpenAI primary.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini provider.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-pro"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Name identifies the provider in logs and fallback decisions.
func (c *GeminiClient) Name() string { return "gemini" }

// Complete sends the conversation and tool declarations to Gemini.
func (c *GeminiClient) Complete(ctx context.Context, messages []Message, defs []ToolDef) (*Completion, error) {
	config := &genai.GenerateContentConfig{}
	if len(defs) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(defs)}}
	}

	contents, system := toGenaiContents(messages)
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	logging.API("Gemini request: %d messages, %d tools", len(messages), len(defs))
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", ErrProvider, err)
	}

	completion := &Completion{Content: result.Text()}
	for i, fc := range result.FunctionCalls() {
		completion.ToolCalls = append(completion.ToolCalls, tools.Call{
			ID:        fc.ID,
			Name:      fc.Name,
			Arguments: fc.Args,
			Index:     i,
		})
	}

	logging.APIDebug("Gemini completion: %d tool calls", len(completion.ToolCalls))
	return completion, nil
}

// toGenaiContents converts the conversation, lifting system messages into
// the system instruction (Gemini has no system role in contents).
func toGenaiContents(messages []Message) ([]*genai.Content, string) {
	var system string
	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, genai.NewPartFromFunctionCall(call.Name, call.Arguments))
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case RoleTool:
			part := genai.NewPartFromFunctionResponse(m.Name, map[string]any{
				"result": m.Content,
			})
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		}
	}
	return contents, system
}

func toDeclarations(defs []ToolDef) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, len(defs))
	for i, d := range defs {
		out[i] = &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  toGenaiSchema(d.Parameters),
		}
	}
	return out
}

func toGenaiSchema(s tools.Schema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = &genai.Schema{
			Type:        toGenaiType(p.Type),
			Description: p.Description,
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   s.Required,
	}
}

func toGenaiType(typ string) genai.Type {
	switch typ {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
