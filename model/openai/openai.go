// Package openai provides an implementation of model.Provider using the
// OpenAI Chat Completions API (including streaming). It adapts kbchat's
// message history into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/kbchat/core"
	"github.com/hupe1980/kbchat/model"
)

// Provider wraps the OpenAI Chat Completions API behind the generic
// model.Provider interface.
type Provider struct {
	client *openai.Client
	cfg    model.Config
}

// NewProvider creates a new OpenAI provider using the default client, which
// reads OPENAI_API_KEY from the environment.
func NewProvider(cfg model.Config) (*Provider, error) {
	client := openai.NewClient()
	return NewProviderFromClient(&client, cfg)
}

// NewProviderFromClient creates a new OpenAI provider from an existing client.
func NewProviderFromClient(client *openai.Client, cfg model.Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("openai provider config: %w", err)
	}
	return &Provider{client: client, cfg: cfg}, nil
}

// buildParams converts the ordered history into OpenAI chat parameters.
func (p *Provider) buildParams(msgs []core.Message) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Text))
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Text))
		default:
			messages = append(messages, openai.UserMessage(m.Text))
		}
	}
	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               p.cfg.ModelID,
		Temperature:         openai.Float(p.cfg.Temperature),
		MaxCompletionTokens: openai.Int(p.cfg.MaxOutputTokens),
	}
}

// Complete implements model.Provider.
func (p *Provider) Complete(ctx context.Context, msgs []core.Message) (core.Message, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(msgs))
	if err != nil {
		return core.Message{}, fmt.Errorf("%w: openai: %v", core.ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return core.Message{}, fmt.Errorf("%w: openai: no choices returned", core.ErrProvider)
	}
	return core.NewAssistantMessage(resp.Choices[0].Message.Content), nil
}

// StreamComplete implements model.Provider; forwards non-empty content
// deltas as they arrive.
func (p *Provider) StreamComplete(ctx context.Context, msgs []core.Message) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		stream := p.client.Chat.Completions.NewStreaming(ctx, p.buildParams(msgs))
		for stream.Next() {
			ck := stream.Current()
			for _, ch := range ck.Choices {
				if ch.Delta.Content == "" {
					continue
				}
				select {
				case <-ctx.Done():
					errCh <- fmt.Errorf("%w: openai streaming: %v", core.ErrProvider, ctx.Err())
					return
				case out <- ch.Delta.Content:
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("%w: openai streaming: %v", core.ErrProvider, err)
		}
	}()
	return out, errCh
}

// Info returns metadata describing this OpenAI provider.
func (p *Provider) Info() model.Info {
	return model.Info{Name: p.cfg.ModelID, Provider: "openai"}
}
