package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/blackwell-systems/gitpilot/internal/config"
)

const (
	messagesURL = "https://api.anthropic.com/v1/messages"
	apiVersion  = "2023-06-01"
	maxTokens   = 4096
)

// systemPrompt keeps replies in the labeled plain-text format the parsers
// expect.
const systemPrompt = "You are a senior engineer helping with git and code review tasks. " +
	"Follow the requested output format exactly and do not wrap it in code fences."

type messagesRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system,omitempty"`
	Messages  []messagesPrompt `json:"messages"`
}

type messagesPrompt struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// API calls the Anthropic Messages API directly.
type API struct {
	key    string
	model  string
	url    string
	client *http.Client
}

// NewAPI creates an API assistant. An empty model uses the configured default.
func NewAPI(key, model string) *API {
	if model == "" {
		model = config.DefaultAssistant.Model
	}
	return &API{key: key, model: model, url: messagesURL, client: http.DefaultClient}
}

// WithURL sends requests to url instead of the public endpoint.
func (a *API) WithURL(url string) *API {
	a.url = url
	return a
}

// Ask sends prompt as a single user message and joins the text blocks of the
// reply.
func (a *API) Ask(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     a.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []messagesPrompt{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", a.key)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	var parts []string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text content in API response")
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}
