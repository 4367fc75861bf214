package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"vizarcade.dev/pkg/metadata"
)

const (
	ProviderName = "openai"

	DefaultModel     = goopenai.GPT4oMini
	DefaultMaxTokens = 600

	tracerName = "vizarcade.dev/pkg/types/openai"
)

var ErrNoChoices = errors.New("chat completion returned no choices")

type Options struct {
	APIKey string
	// BaseURL points at any OpenAI compatible endpoint, e.g. http://localhost:11434/v1.
	BaseURL    string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	HTTPClient *http.Client
}

type ChatGenerator struct {
	client  *goopenai.Client
	options Options
}

func NewChatGenerator(options Options) *ChatGenerator {
	if options.Model == "" {
		options.Model = DefaultModel
	}

	if options.MaxTokens <= 0 {
		options.MaxTokens = DefaultMaxTokens
	}

	config := goopenai.DefaultConfig(options.APIKey)
	if options.BaseURL != "" {
		config.BaseURL = options.BaseURL
	}

	if options.HTTPClient != nil {
		config.HTTPClient = options.HTTPClient
	}

	return &ChatGenerator{
		client:  goopenai.NewClientWithConfig(config),
		options: options,
	}
}

func (g *ChatGenerator) Name() string {
	return ProviderName
}

func upstreamStatus(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}

	return 0
}

// Generate returns choices[0].message.content of a single user turn completion.
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.options.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, g.options.Timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "openai.chat_completions")
	defer span.End()

	span.SetAttributes(
		attribute.String("gen_ai.system", ProviderName),
		attribute.String("gen_ai.request.model", g.options.Model),
		attribute.Int("gen_ai.request.max_tokens", g.options.MaxTokens),
	)

	rMeta := metadata.RequestMetadataFromCtx(ctx)
	rMeta.UpstreamProvider = ProviderName
	rMeta.UpstreamRequestAt = time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     g.options.Model,
		MaxTokens: g.options.MaxTokens,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})

	rMeta.UpstreamRespondAt = time.Now()

	if err != nil {
		rMeta.UpstreamResponseStatusCode = upstreamStatus(err)
		span.SetStatus(codes.Error, err.Error())

		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	rMeta.UpstreamResponseStatusCode = http.StatusOK
	span.SetAttributes(attribute.String("gen_ai.response.model", resp.Model))

	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, ErrNoChoices.Error())
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
