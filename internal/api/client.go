// Package api adapts the Anthropic Messages API to tandem's planner and
// worker interfaces.
package api

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/ShayCichocki/tandem/internal/config"
)

const defaultMaxTokens = 8192

// MessageAPI is the subset of the SDK's message service the adapters use.
// *anthropic.MessageService satisfies it.
type MessageAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client wraps the Anthropic SDK client with token tracking.
type Client struct {
	messages MessageAPI
	model    anthropic.Model
	tracker  *TokenTracker
}

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	// Model is the Claude model to use (e.g., anthropic.ModelClaudeSonnet4_20250514).
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// ClientConfigFrom maps the anthropic config section onto a ClientConfig.
func ClientConfigFrom(cfg config.AnthropicConfig) ClientConfig {
	return ClientConfig{
		Model:         anthropic.Model(cfg.Model),
		APIKey:        cfg.APIKey,
		UseAWSBedrock: cfg.UseBedrock,
		AWSRegion:     cfg.AWSRegion,
		AWSProfile:    cfg.AWSProfile,
	}
}

// NewClient creates a new Anthropic API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("creating client: %w", config.ErrNoAPIKey)
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	inner := anthropic.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	return NewClientWithAPI(&inner.Messages, model), nil
}

// NewClientWithAPI builds a Client over an existing message service.
func NewClientWithAPI(messages MessageAPI, model anthropic.Model) *Client {
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	return &Client{
		messages: messages,
		model:    model,
		tracker:  NewTokenTracker(),
	}
}

const (
	bedrockPrefix = "us.anthropic."
	bedrockSuffix = "-v1:0"
)

// translateModelForBedrock maps a dated Claude model id onto its Bedrock
// cross-region inference profile. Other names pass through unchanged.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	name := string(model)
	if !strings.HasPrefix(name, "claude-") || !datedModel.MatchString(name) {
		return model
	}
	return anthropic.Model(bedrockPrefix + name + bedrockSuffix)
}

var datedModel = regexp.MustCompile(`-\d{8}$`)

// Model returns the configured model name.
func (c *Client) Model() anthropic.Model {
	return c.model
}

// Tracker returns the token tracker for this client.
func (c *Client) Tracker() *TokenTracker {
	return c.tracker
}

// ResolveModel returns the model to send for name: the client default when
// name is empty, translated to a Bedrock profile when the client uses Bedrock.
func (c *Client) ResolveModel(name string) anthropic.Model {
	if name == "" {
		return c.model
	}
	if c.Bedrock() {
		return translateModelForBedrock(anthropic.Model(name))
	}
	return anthropic.Model(name)
}

// Bedrock reports whether the client talks to AWS Bedrock.
func (c *Client) Bedrock() bool {
	return strings.HasPrefix(string(c.model), bedrockPrefix)
}

// send performs one Messages call and records its token usage.
func (c *Client) send(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	if params.Model == "" {
		params.Model = c.model
	}
	if params.MaxTokens == 0 {
		params.MaxTokens = defaultMaxTokens
	}
	resp, err := c.messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}
	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}

// textOf concatenates the text blocks of a response.
func textOf(resp *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(variant.Text)
		}
	}
	return sb.String()
}

// TokenTracker tracks token usage across API calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from an API call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Reset clears all tracked token usage.
func (t *TokenTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok = 0
	t.outputTok = 0
	t.calls = 0
}

// Cost estimates the cost in USD at Sonnet list prices.
func (t *TokenTracker) Cost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	inputCost := float64(t.inputTok) / 1_000_000 * 3.0
	outputCost := float64(t.outputTok) / 1_000_000 * 15.0
	return inputCost + outputCost
}
