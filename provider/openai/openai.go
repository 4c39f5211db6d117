// Package openai routes the OpenAI Go SDK through a fetchmesh engine.
package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hupe1980/fetchmesh/engine"
	"github.com/hupe1980/fetchmesh/provider"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Middleware returns an SDK middleware that sends every OpenAI API call
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

// NewClient returns an OpenAI client whose traffic goes through e. Further
// request options (API key, base URL, retries) are applied after the
// middleware.
func NewClient(e *engine.Engine, opts ...option.RequestOption) openai.Client {
	return openai.NewClient(append([]option.RequestOption{option.WithMiddleware(Middleware(e))}, opts...)...)
}

// Options configure the OpenAI completer.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Completer answers single prompts with the Chat Completions API.
type Completer struct {
	client *openai.Client
	opts   Options
}

var _ provider.Completer = (*Completer)(nil)

// NewCompleter creates a completer using client, typically built by NewClient.
func NewCompleter(client *openai.Client, optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Completer{client: client, opts: opts}
}

// Complete implements provider.Completer.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api error: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Info implements provider.Completer.
func (c *Completer) Info() provider.Info {
	return provider.Info{Name: c.opts.Model, Provider: "openai"}
}
