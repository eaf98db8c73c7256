package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ZaguanLabs/tlcache"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// OpenAIBackend implements Backend using OpenAI's chat completion API.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI backend.
type OpenAIConfig struct {
	APIKey      string       // OpenAI API key
	Model       string       // Model to use (default: "gpt-4o-mini")
	Temperature float32      // Temperature for generation (default: 0.3)
	BaseURL     string       // Custom base URL (optional)
	HTTPClient  *http.Client // Custom HTTP client (optional)
}

// NewOpenAIBackend creates a new OpenAI backend.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	config.HTTPClient = withUserAgent(httpClient)

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Translate translates one text using OpenAI.
func (p *OpenAIBackend) Translate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return req.Text, nil
	}

	userMessage, err := json.Marshal(map[string]string{"text": req.Text})
	if err != nil {
		return "", &tlcache.ProviderError{Message: "encoding request", Cause: err}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: string(userMessage)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", &tlcache.ProviderError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return "", &tlcache.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return p.parseResponse(resp.Choices[0].Message.Content)
}

func (p *OpenAIBackend) buildSystemPrompt(req Request) string {
	targetName := tlcache.GetLanguageName(req.TargetLang)

	source := "Detect the source language."
	if req.SourceLang != "" {
		source = fmt.Sprintf("The source language is %s.", tlcache.GetLanguageName(req.SourceLang))
	}

	var markup string
	switch req.Format {
	case tlcache.FormatHTML:
		markup = "The text is HTML. Translate only human-readable text. Keep every tag, attribute, URL and entity exactly as it appears."
	case tlcache.FormatBBCode:
		markup = "The text is BBCode. Translate only human-readable text. Keep every [tag], [url=...] and [img] block exactly as it appears."
	default:
		markup = "The text is plain text. Do not add any markup."
	}

	return fmt.Sprintf(`# Role
You are an expert native translator for an astrophotography community. You translate user content to %s with the fluency of a native speaker.

# Task
%s Translate the provided text into idiomatic %s.

# Markup
%s

# Style Guide
- **Natural Flow**: Avoid literal translations. Rephrase sentences to sound natural to a native speaker.
- **Terminology**: Keep astronomical object designations (M31, NGC 7000, IC 1805), equipment names and usernames unchanged.
- **Formatting**: Preserve line breaks and meaningful whitespace.

# Format
Return a valid JSON object with a single key "translation" containing the translated text.
Example: { "translation": "translated text" }
- Do NOT wrap in Markdown code blocks.`, targetName, source, targetName, markup)
}

func (p *OpenAIBackend) parseResponse(content string) (string, error) {
	content = strings.TrimSpace(content)

	var objResult map[string]any
	if err := json.Unmarshal([]byte(content), &objResult); err == nil {
		if translation, ok := objResult["translation"].(string); ok {
			return translation, nil
		}

		// Fallback: some models pick another key. Only an unambiguous
		// single-valued object is accepted.
		if len(objResult) == 1 {
			for _, v := range objResult {
				if s, ok := v.(string); ok {
					return s, nil
				}
			}
		}
	}

	return "", &tlcache.ProviderError{
		Message:   "invalid response format from OpenAI",
		Retryable: false,
	}
}

func isRetryableError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	if tlcache.IsRetryable(err) {
		return true
	}

	// Check for common retryable conditions
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// userAgentTransport sets the tlcache user agent on outgoing requests.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", tlcache.UserAgent())
	return t.base.RoundTrip(req)
}

func withUserAgent(c *http.Client) *http.Client {
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone := *c
	clone.Transport = userAgentTransport{base: base}
	return &clone
}

// Verify OpenAIBackend implements Backend
var _ Backend = (*OpenAIBackend)(nil)
