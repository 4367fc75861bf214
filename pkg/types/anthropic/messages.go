package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"vizarcade.dev/pkg/metadata"
	"vizarcade.dev/pkg/utils"
)

const (
	ProviderName = "anthropic"

	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultVersion   = "2023-06-01"
	DefaultModel     = "claude-haiku-4-5-20251001"
	DefaultMaxTokens = 600

	MessagesPath = "/v1/messages"

	tracerName = "vizarcade.dev/pkg/types/anthropic"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type MessagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

type Options struct {
	APIKey    string
	BaseURL   string
	Version   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// OverrideParams is merged into every request body as an RFC 7386 merge patch.
	OverrideParams map[string]any
	HTTPClient     *http.Client
}

type Client struct {
	options Options
	patch   []byte
}

func NewClient(options Options) (*Client, error) {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}

	if options.Version == "" {
		options.Version = DefaultVersion
	}

	if options.Model == "" {
		options.Model = DefaultModel
	}

	if options.MaxTokens <= 0 {
		options.MaxTokens = DefaultMaxTokens
	}

	if options.HTTPClient == nil {
		options.HTTPClient = http.DefaultClient
	}

	options.BaseURL = strings.TrimSuffix(options.BaseURL, "/")

	c := &Client{options: options}

	if len(options.OverrideParams) > 0 {
		patch, err := json.Marshal(options.OverrideParams)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal override params: %w", err)
		}

		c.patch = patch
	}

	return c, nil
}

func (c *Client) Name() string {
	return ProviderName
}

// BuildRequestBody encodes a single user turn and applies the override params.
func (c *Client) BuildRequestBody(prompt string) ([]byte, error) {
	body, err := json.Marshal(MessagesRequest{
		Model:     c.options.Model,
		MaxTokens: c.options.MaxTokens,
		Messages:  []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	if c.patch == nil {
		return body, nil
	}

	patched, err := jsonpatch.MergePatch(body, c.patch)
	if err != nil {
		return nil, fmt.Errorf("failed to apply override params: %w", err)
	}

	return patched, nil
}

type UpstreamError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s: %s", e.StatusCode, e.Type, e.Message)
}

// Generate returns the text of the first content block.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.options.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.options.Timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "anthropic.messages")
	defer span.End()

	span.SetAttributes(
		attribute.String("gen_ai.system", ProviderName),
		attribute.String("gen_ai.request.model", c.options.Model),
		attribute.Int("gen_ai.request.max_tokens", c.options.MaxTokens),
	)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := c.BuildRequestBody(prompt)
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.options.BaseURL+MessagesPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-Api-Key", c.options.APIKey)
	request.Header.Set("Anthropic-Version", c.options.Version)

	rMeta := metadata.RequestMetadataFromCtx(ctx)
	rMeta.UpstreamProvider = ProviderName
	rMeta.UpstreamRequestAt = time.Now()

	response, err := c.options.HTTPClient.Do(request)

	rMeta.UpstreamRespondAt = time.Now()

	if err != nil {
		return "", fmt.Errorf("failed to call messages api: %w", err)
	}

	defer func() { _ = response.Body.Close() }()

	rMeta.UpstreamResponseStatusCode = response.StatusCode

	_, parsed, err := utils.ReadAsJSONWithClose(response.Body)

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return "", &UpstreamError{
			StatusCode: response.StatusCode,
			Type:       utils.GetByJSONPath[string](parsed, "{ .error.type }"),
			Message:    utils.GetByJSONPath[string](parsed, "{ .error.message }"),
		}
	}

	if err != nil {
		return "", err
	}

	return utils.GetByJSONPath[string](parsed, "{ .content[0].text }"), nil
}
