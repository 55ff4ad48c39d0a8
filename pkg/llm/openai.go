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
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4-turbo-preview"
)

// openAIClient implements Client against the OpenAI chat completions API.
type openAIClient struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	http      *http.Client
}

// OpenAIOption configures the OpenAI client.
type OpenAIOption func(*openAIClient)

// WithOpenAIBaseURL overrides the default API base URL.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *openAIClient) { c.baseURL = url }
}

// WithOpenAIModel overrides the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *openAIClient) { c.model = model }
}

// WithOpenAIHTTPClient overrides the default http.Client.
func WithOpenAIHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *openAIClient) { c.http = hc }
}

// NewOpenAI creates an OpenAI-backed Client.
func NewOpenAI(apiKey string, maxTokens int, opts ...OpenAIOption) Client {
	c := &openAIClient{
		apiKey:    apiKey,
		baseURL:   defaultOpenAIBaseURL,
		model:     defaultOpenAIModel,
		maxTokens: maxTokens,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *openAIClient) Name() string { return "openai" }

type openAIChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, req.Messages...)

	temp := defaultTemperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTokens := maxTokensFor(req, c.maxTokens)

	body, err := json.Marshal(openAIChatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: openai marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "llm: openai create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", eris.Wrap(err, "llm: openai request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "llm: openai read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("llm: openai returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", eris.Wrap(err, "llm: openai parse response")
	}
	if len(parsed.Choices) == 0 {
		return "", eris.New("llm: openai response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
