// Package anthropic routes the Anthropic Go SDK through a fetchmesh engine.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/fetchmesh/engine"
	"github.com/hupe1980/fetchmesh/provider"
)

// Middleware returns an SDK middleware that sends every Anthropic API call
// through e.
func Middleware(e *engine.Engine, optFns ...func(o *provider.RouteOptions)) option.Middleware {
	var opts provider.RouteOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		return provider.Route(e, req, next, opts)
	}
}

// NewClient returns an Anthropic client whose traffic goes through e.
func NewClient(e *engine.Engine, opts ...option.RequestOption) anthropic.Client {
	return anthropic.NewClient(append([]option.RequestOption{option.WithMiddleware(Middleware(e))}, opts...)...)
}

// Options configure the Anthropic completer.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
}

// Completer answers single prompts with the Messages API.
type Completer struct {
	client *anthropic.Client
	opts   Options
}

var _ provider.Completer = (*Completer)(nil)

// NewCompleter creates a completer using client, typically built by NewClient.
func NewCompleter(client *anthropic.Client, optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Completer{client: client, opts: opts}
}

// Complete implements provider.Completer. Text blocks of the answer are
// concatenated.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}

// Info implements provider.Completer.
func (c *Completer) Info() provider.Info {
	return provider.Info{Name: string(c.opts.Model), Provider: "anthropic"}
}
