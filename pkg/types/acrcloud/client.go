package acrcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"vizarcade.dev/pkg/metadata"
	"vizarcade.dev/pkg/object"
	"vizarcade.dev/pkg/utils"
)

const (
	ProviderName = "acrcloud"

	DefaultTimeout = time.Second * 10

	tracerName = "vizarcade.dev/pkg/types/acrcloud"
)

type Client struct {
	creds      Credentials
	httpClient *http.Client
	now        func() time.Time
	timeout    time.Duration
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock replaces the source of the signature timestamp and boundary.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func NewClient(creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		creds:      creds,
		httpClient: http.DefaultClient,
		now:        time.Now,
		timeout:    DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Credentials() Credentials {
	return c.creds
}

func (c *Client) IdentifyURL() string {
	return "https://" + c.creds.Host + IdentifyPath
}

// BuildIdentifyRequest signs and encodes sample for a single identify call.
func (c *Client) BuildIdentifyRequest(ctx context.Context, sample []byte) (*http.Request, error) {
	now := c.now()

	body, err := BuildIdentifyBody(c.creds, sample, now.Unix(), Boundary(now))
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.IdentifyURL(), bytes.NewReader(body.Bytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create identify request: %w", err)
	}

	request.Header.Set("Content-Type", body.ContentType)
	request.ContentLength = int64(len(body.Bytes))

	return request, nil
}

type Artist struct {
	Name string `json:"name"`
}

type IdentifyResult struct {
	// Raw is the upstream body exactly as received.
	Raw json.RawMessage

	Matched       bool
	Title         string
	Artists       []string
	StatusMessage string
}

func parseIdentifyResult(raw []byte) (*IdentifyResult, error) {
	var parsed any

	err := json.Unmarshal(raw, &parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse identify response: %w", err)
	}

	result := &IdentifyResult{
		Raw:           raw,
		StatusMessage: lo.CoalesceOrEmpty(utils.GetByJSONPath[string](parsed, "{ .status.msg }"), "unknown"),
	}

	code := utils.GetByJSONPath[*int](parsed, "{ .status.code }")
	music := utils.GetByJSONPath[[]any](parsed, "{ .metadata.music }")

	result.Matched = code != nil && *code == 0 && len(music) > 0
	if !result.Matched {
		return result, nil
	}

	result.Title = utils.GetByJSONPath[string](parsed, "{ .metadata.music[0].title }")
	result.Artists = lo.FilterMap(utils.GetByJSONPath[[]Artist](parsed, "{ .metadata.music[0].artists }"), func(artist Artist, _ int) (string, bool) {
		return artist.Name, artist.Name != ""
	})

	return result, nil
}

// Identify performs one signed identify call. Non-2xx answers become a 502
// carrying the upstream status; nothing is retried.
func (c *Client) Identify(ctx context.Context, sample []byte) (*IdentifyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "acrcloud.identify")
	defer span.End()

	span.SetAttributes(
		attribute.String("acrcloud.host", c.creds.Host),
		attribute.Int("acrcloud.sample_bytes", len(sample)),
	)

	request, err := c.BuildIdentifyRequest(ctx, sample)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, object.NewErrorInternalError(err)
	}

	rMeta := metadata.RequestMetadataFromCtx(ctx)
	rMeta.UpstreamProvider = ProviderName
	rMeta.UpstreamRequestAt = time.Now()

	response, err := c.httpClient.Do(request)

	rMeta.UpstreamRespondAt = time.Now()

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, object.NewErrorInternalError(err)
	}

	defer func() { _ = response.Body.Close() }()

	rMeta.UpstreamResponseStatusCode = response.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", response.StatusCode))

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, response.Body)
		span.SetStatus(codes.Error, response.Status)

		return nil, object.NewErrorRecognitionUpstream(response.StatusCode)
	}

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, object.NewErrorInternalError(fmt.Errorf("failed to read identify response: %w", err))
	}

	result, err := parseIdentifyResult(raw)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, object.NewErrorInternalError(err)
	}

	span.SetAttributes(attribute.Bool("acrcloud.matched", result.Matched))

	return result, nil
}
