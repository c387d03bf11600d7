package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/kbchat/core"
)

// Config holds the generation parameters fixed per provider instance.
// Parameters are chosen at wiring time and never varied per call.
type Config struct {
	// ModelID selects the backend model.
	ModelID string
	// Temperature controls sampling randomness; valid range is [0, 2].
	Temperature float64
	// MaxOutputTokens is the hard cap on generated length.
	MaxOutputTokens int64
}

// Validate rejects unknown or out-of-range values so misconfiguration
// surfaces at construction rather than deep in a request path.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ModelID) == "" {
		return fmt.Errorf("model id must not be empty")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("max output tokens must be positive, got %d", c.MaxOutputTokens)
	}
	return nil
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Provider is the minimal interface the orchestrator needs to drive
// generation. One call (of either form) is in flight per conversation at a
// time; providers may use any internal concurrency model.
type Provider interface {
	// Complete submits the full ordered history and returns exactly one
	// assistant message. Failures are wrapped with core.ErrProvider.
	Complete(ctx context.Context, msgs []core.Message) (core.Message, error)

	// StreamComplete submits the full ordered history and emits the
	// response as a finite sequence of non-empty text fragments. The
	// fragment channel is closed on completion; a mid-stream failure is
	// delivered on the error channel after the fragments already sent,
	// which are not rolled back. Both channels are always closed.
	StreamComplete(ctx context.Context, msgs []core.Message) (<-chan string, <-chan error)

	// Info returns information about the provider implementation.
	Info() Info
}

// MockProvider is a lightweight in-memory Provider useful for tests &
// examples. Canned responses are keyed on the text of the last user turn.
type MockProvider struct {
	info      Info
	responses map[string]string
}

// NewMockProvider constructs a MockProvider.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockProvider) AddResponse(prompt, response string) { m.responses[prompt] = response }

func (m *MockProvider) resolve(msgs []core.Message) (string, error) {
	if len(msgs) == 0 {
		return "", fmt.Errorf("%w: no messages provided", core.ErrProvider)
	}
	last := msgs[len(msgs)-1]
	full := m.responses[last.Text]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", last.Text)
	}
	return full, nil
}

// Complete implements Provider.
func (m *MockProvider) Complete(_ context.Context, msgs []core.Message) (core.Message, error) {
	full, err := m.resolve(msgs)
	if err != nil {
		return core.Message{}, err
	}
	return core.NewAssistantMessage(full), nil
}

// StreamComplete implements Provider; emits the canned response split into
// word fragments.
func (m *MockProvider) StreamComplete(ctx context.Context, msgs []core.Message) (<-chan string, <-chan error) {
	out := make(chan string, 16)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		full, err := m.resolve(msgs)
		if err != nil {
			errCh <- err
			return
		}
		words := strings.SplitAfter(full, " ")
		for _, w := range words {
			if w == "" {
				continue
			}
			select {
			case <-ctx.Done():
				errCh <- fmt.Errorf("%w: %v", core.ErrProvider, ctx.Err())
				return
			case out <- w:
			}
		}
	}()
	return out, errCh
}

// Info implements Provider.
func (m *MockProvider) Info() Info { return m.info }
