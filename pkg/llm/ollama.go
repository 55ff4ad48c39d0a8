package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3.2"
)

// ollamaClient implements Client against a local Ollama server's /api/chat.
type ollamaClient struct {
	baseURL string
	model   string
	http    *http.Client
}

// OllamaOption configures the Ollama client.
type OllamaOption func(*ollamaClient)

// WithOllamaBaseURL overrides the default server URL.
func WithOllamaBaseURL(url string) OllamaOption {
	return func(c *ollamaClient) { c.baseURL = url }
}

// WithOllamaModel overrides the default model.
func WithOllamaModel(model string) OllamaOption {
	return func(c *ollamaClient) { c.model = model }
}

// WithOllamaHTTPClient overrides the default http.Client.
func WithOllamaHTTPClient(hc *http.Client) OllamaOption {
	return func(c *ollamaClient) { c.http = hc }
}

// NewOllama creates a Client backed by a local Ollama server.
func NewOllama(opts ...OllamaOption) Client {
	c := &ollamaClient{
		baseURL: defaultOllamaBaseURL,
		model:   defaultOllamaModel,
		http: &http.Client{
			// Local models can be slow; allow generous completion time.
			Timeout: 120 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *ollamaClient) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
}

func (c *ollamaClient) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, req.Messages...)

	temp := defaultTemperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   false,
		Options:  map[string]any{"temperature": temp},
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: ollama marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "llm: ollama create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", eris.Wrap(err, "llm: ollama request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "llm: ollama read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("llm: ollama returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", eris.Wrap(err, "llm: ollama parse response")
	}
	return parsed.Message.Content, nil
}
