package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"appforge/internal/progress"
	"appforge/internal/tools"
)

func broadcastProgressTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "broadcast_progress",
		Description: "Send a status message to the user while work continues.",
		Schema: tools.Schema{
			Required: []string{"message"},
			Properties: map[string]tools.Property{
				"message": {Type: "string", Description: "Status text shown to the user"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			msg := args["message"].(string)
			env.Broadcaster.Emit(progress.Event{
				Stage:   progress.StageThinking,
				Message: msg,
			})
			return &tools.Output{Data: "broadcast"}, nil
		},
	}
}

func generateImageTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "generate_image",
		Description: "Generate an image from a prompt and store it at the given path.",
		Mutates:     true,
		Schema: tools.Schema{
			Required: []string{"prompt", "path"},
			Properties: map[string]tools.Property{
				"prompt": {Type: "string", Description: "What the image should show"},
				"path":   {Type: "string", Description: "Destination file path"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			if env.Images == nil {
				return nil, errors.New("image generation is not configured")
			}
			path := args["path"].(string)

			content, err := env.Images.Generate(ctx, args["prompt"].(string))
			if err != nil {
				return nil, fmt.Errorf("image generation failed: %w", err)
			}

			existed := env.Store.Exists(path)
			f, err := env.Store.Write(path, content, "")
			if err != nil {
				return nil, err
			}
			env.Tracker.Track(path, f.Content)

			action := progress.ActionCreated
			if existed {
				action = progress.ActionUpdated
			}
			return &tools.Output{
				Data:   fmt.Sprintf("generated image at %s", path),
				Deltas: []progress.FileDelta{{Path: path, Action: action}},
			}, nil
		},
	}
}

func webSearchTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "web_search",
		Description: "Search the web and return a text summary of results.",
		Schema: tools.Schema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query": {Type: "string", Description: "Search query"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			if env.Search == nil {
				return nil, errors.New("web search is not configured")
			}
			result, err := env.Search.Search(ctx, args["query"].(string))
			if err != nil {
				return nil, fmt.Errorf("web search failed: %w", err)
			}
			return &tools.Output{Data: result}, nil
		},
	}
}

// =============================================================================
// HTTP-BACKED COLLABORATORS
// =============================================================================

// HTTPImageGenerator calls an image generation service. The service returns
// file content (e.g. SVG or a data URI) for the prompt.
type HTTPImageGenerator struct {
	url    string
	client *http.Client
}

// NewHTTPImageGenerator creates a generator against the given endpoint.
func NewHTTPImageGenerator(url string, timeout time.Duration) *HTTPImageGenerator {
	return &HTTPImageGenerator{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *HTTPImageGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := postJSON(ctx, g.client, g.url, map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}
	var resp struct {
		Content string `json:"content"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("bad image service response: %w", err)
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	return resp.Content, nil
}

// HTTPWebSearcher calls a web search service.
type HTTPWebSearcher struct {
	url    string
	client *http.Client
}

// NewHTTPWebSearcher creates a searcher against the given endpoint.
func NewHTTPWebSearcher(url string, timeout time.Duration) *HTTPWebSearcher {
	return &HTTPWebSearcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPWebSearcher) Search(ctx context.Context, query string) (string, error) {
	body, err := postJSON(ctx, s.client, s.url, map[string]string{"query": query})
	if err != nil {
		return "", err
	}
	var resp struct {
		Results string `json:"results"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("bad search service response: %w", err)
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	return resp.Results, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
