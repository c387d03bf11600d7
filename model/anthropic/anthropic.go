// Package anthropic provides an implementation of model.Provider using the
// Anthropic Messages API (including streaming). System context is carried in
// the request's system blocks rather than the message list, per the API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/kbchat/core"
	"github.com/hupe1980/kbchat/model"
)

// Provider wraps the Anthropic Messages API behind the generic
// model.Provider interface.
type Provider struct {
	client *anthropic.Client
	cfg    model.Config
}

// NewProvider creates a new Anthropic provider. An empty apiKey falls back
// to the SDK's environment lookup (ANTHROPIC_API_KEY).
func NewProvider(cfg model.Config, apiKey string) (*Provider, error) {
	var clientOpts []option.RequestOption
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return NewProviderFromClient(&client, cfg)
}

// NewProviderFromClient creates a new Anthropic provider from an existing client.
func NewProviderFromClient(client *anthropic.Client, cfg model.Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic provider config: %w", err)
	}
	return &Provider{client: client, cfg: cfg}, nil
}

// buildParams converts the ordered history into Anthropic message
// parameters, lifting the system message into the System field.
func (p *Provider) buildParams(msgs []core.Message) anthropic.MessageNewParams {
	var messages []anthropic.MessageParam
	var system []anthropic.TextBlockParam
	for _, m := range msgs {
		switch m.Role {
		case core.RoleSystem:
			if m.Text != "" {
				system = append(system, anthropic.TextBlockParam{Text: m.Text})
			}
		case core.RoleAssistant:
			if m.Text != "" {
				messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
			}
		default:
			if m.Text != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
			}
		}
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.cfg.ModelID),
		Messages:    messages,
		MaxTokens:   p.cfg.MaxOutputTokens,
		Temperature: anthropic.Float(p.cfg.Temperature),
	}
	if len(system) > 0 {
		params.System = system
	}
	return params
}

// Complete implements model.Provider.
func (p *Provider) Complete(ctx context.Context, msgs []core.Message) (core.Message, error) {
	resp, err := p.client.Messages.New(ctx, p.buildParams(msgs))
	if err != nil {
		return core.Message{}, fmt.Errorf("%w: anthropic: %v", core.ErrProvider, err)
	}
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	return core.NewAssistantMessage(text), nil
}

// StreamComplete implements model.Provider; forwards text deltas from the
// Messages event stream as they arrive.
func (p *Provider) StreamComplete(ctx context.Context, msgs []core.Message) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		stream := p.client.Messages.NewStreaming(ctx, p.buildParams(msgs))
		for stream.Next() {
			event := stream.Current()
			deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			textDelta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta)
			if !ok || textDelta.Text == "" {
				continue
			}
			select {
			case <-ctx.Done():
				errCh <- fmt.Errorf("%w: anthropic streaming: %v", core.ErrProvider, ctx.Err())
				return
			case out <- textDelta.Text:
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("%w: anthropic streaming: %v", core.ErrProvider, err)
		}
	}()
	return out, errCh
}

// Info returns metadata describing this Anthropic provider.
func (p *Provider) Info() model.Info {
	return model.Info{Name: p.cfg.ModelID, Provider: "anthropic"}
}
