package anthropic

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/jsonschema-go/jsonschema"
	"golang.org/x/time/rate"

	"github.com/wagiedev/toolagent-go/internal/engine"
	"github.com/wagiedev/toolagent-go/internal/errors"
	"github.com/wagiedev/toolagent-go/internal/message"
)

const headerTimeout = 120 * time.Second

// Compile-time verification that Client is an engine endpoint.
var _ engine.Endpoint = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.requestOpts = append(c.requestOpts, option.WithBaseURL(url))
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithMaxRetries sets how often a failed request is retried. The SDK default
// applies when this option is not given.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.requestOpts = append(c.requestOpts, option.WithMaxRetries(n))
	}
}

// WithRateLimit limits requests to rpm per minute with the given burst.
// rpm <= 0 disables limiting.
func WithRateLimit(rpm, burst int) Option {
	return func(c *Client) {
		if rpm <= 0 {
			c.limiter = nil

			return
		}

		if burst <= 0 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
	}
}

// Client calls the Messages API.
type Client struct {
	model       string
	api         anthropic.Client
	httpClient  *http.Client
	requestOpts []option.RequestOption
	limiter     *rate.Limiter
	log         *slog.Logger
}

// New creates a client for model. Returns ErrNoAPIKey when apiKey is empty.
func New(log *slog.Logger, apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.ErrNoAPIKey
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout

	c := &Client{
		model: model,
		// No overall timeout; the caller's context bounds each request.
		httpClient: &http.Client{Transport: transport},
		log:        log.With("component", "anthropic", "model", model),
	}

	for _, opt := range opts {
		opt(c)
	}

	requestOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(c.httpClient),
	}, c.requestOpts...)

	c.api = anthropic.NewClient(requestOpts...)

	return c, nil
}

// Model returns the model id requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one Messages API request.
//
// Every failure is returned as EndpointError; StatusCode is set when the API
// answered with an error status.
func (c *Client) Complete(ctx context.Context, req *engine.Request) (*engine.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &errors.EndpointError{Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	params, err := c.params(req)
	if err != nil {
		return nil, &errors.EndpointError{Err: err}
	}

	c.log.Debug("Sending request", "messages", len(req.Messages), "tools", len(req.Tools))

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		if apiErr, ok := stderrors.AsType[*anthropic.Error](err); ok {
			c.log.Warn("API error", "status", apiErr.StatusCode, "request_id", apiErr.RequestID)

			return nil, &errors.EndpointError{StatusCode: apiErr.StatusCode, Err: err}
		}

		return nil, &errors.EndpointError{Err: fmt.Errorf("request failed: %w", err)}
	}

	content, err := c.segments(msg.Content)
	if err != nil {
		return nil, &errors.EndpointError{Err: err}
	}

	c.log.Debug("Response received",
		"id", msg.ID,
		"stop_reason", msg.StopReason,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
		"segments", len(content),
	)

	return &engine.Response{Content: content, StopReason: string(msg.StopReason)}, nil
}

func (c *Client) params(req *engine.Request) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(req.MaxOutputTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(req.Messages)),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	for i, msg := range req.Messages {
		param, err := messageParam(msg)
		if err != nil {
			return params, fmt.Errorf("message %d: %w", i, err)
		}

		params.Messages = append(params.Messages, param)
	}

	for _, spec := range req.Tools {
		schema, err := inputSchema(spec.InputSchema)
		if err != nil {
			return params, fmt.Errorf("tool %s: %w", spec.Name, err)
		}

		tool := anthropic.ToolParam{Name: spec.Name, InputSchema: schema}
		if spec.Description != "" {
			tool.Description = anthropic.String(spec.Description)
		}

		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tool})
	}

	return params, nil
}

func messageParam(msg message.Message) (anthropic.MessageParam, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))

	for _, seg := range msg.Content {
		switch s := seg.(type) {
		case *message.TextBlock:
			blocks = append(blocks, anthropic.NewTextBlock(s.Text))
		case *message.ToolUseBlock:
			input := s.Input
			if input == nil {
				input = map[string]any{}
			}

			blocks = append(blocks, anthropic.NewToolUseBlock(s.ID, input, s.Name))
		case *message.ToolResultBlock:
			blocks = append(blocks, anthropic.NewToolResultBlock(s.ToolUseID, s.Content, s.IsError))
		default:
			return anthropic.MessageParam{}, fmt.Errorf("unsupported segment %T", seg)
		}
	}

	switch msg.Role {
	case message.RoleUser:
		return anthropic.NewUserMessage(blocks...), nil
	case message.RoleAssistant:
		return anthropic.NewAssistantMessage(blocks...), nil
	default:
		return anthropic.MessageParam{}, fmt.Errorf("unsupported role %q", msg.Role)
	}
}

// inputSchema converts a tool schema. Keywords other than properties and
// required are carried as extra fields. Properties is always set so the
// schema is never dropped as empty.
func inputSchema(schema *jsonschema.Schema) (anthropic.ToolInputSchemaParam, error) {
	param := anthropic.ToolInputSchemaParam{Properties: map[string]any{}}
	if schema == nil {
		return param, nil
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return param, fmt.Errorf("encode input schema: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return param, fmt.Errorf("decode input schema: %w", err)
	}

	if props, ok := fields["properties"]; ok && props != nil {
		param.Properties = props
	}

	param.Required = schema.Required

	for _, key := range []string{"type", "properties", "required"} {
		delete(fields, key)
	}

	if len(fields) > 0 {
		param.ExtraFields = fields
	}

	return param, nil
}

// segments keeps the text and tool_use blocks of a response; other block
// types are skipped.
func (c *Client) segments(blocks []anthropic.ContentBlockUnion) ([]message.Segment, error) {
	content := make([]message.Segment, 0, len(blocks))

	for _, block := range blocks {
		switch block.Type {
		case message.BlockTypeText:
			content = append(content, &message.TextBlock{Text: block.Text})
		case message.BlockTypeToolUse:
			input := map[string]any{}

			if len(block.Input) > 0 && string(block.Input) != "null" {
				if err := json.Unmarshal(block.Input, &input); err != nil {
					return nil, fmt.Errorf("decode tool_use %s input: %w", block.ID, err)
				}
			}

			content = append(content, &message.ToolUseBlock{ID: block.ID, Name: block.Name, Input: input})
		default:
			c.log.Debug("Skipping content block", "type", block.Type)
		}
	}

	return content, nil
}
