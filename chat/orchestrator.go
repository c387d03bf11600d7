package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/kbchat/cache"
	"github.com/hupe1980/kbchat/core"
	"github.com/hupe1980/kbchat/internal/util"
	"github.com/hupe1980/kbchat/logging"
	"github.com/hupe1980/kbchat/model"
)

// DefaultInstructionTemplate embeds the combined knowledge base into the
// system message installed at index 0.
const DefaultInstructionTemplate = `You are a helpful assistant for this project.
Answer using the knowledge base below when it is relevant to the question.
When the knowledge base does not cover a question, say so instead of guessing.

Knowledge base:

{{.Knowledge}}`

// DefaultFallbackText is returned when the provider produces no content.
const DefaultFallbackText = "I don't have a response for that."

// DefaultCacheTTL bounds the lifetime of cached responses.
const DefaultCacheTTL = 15 * time.Minute

// Options configures an Orchestrator.
type Options struct {
	// Cache is consulted on the blocking path only. Defaults to an
	// in-memory cache; set to nil to disable caching entirely.
	Cache core.ResponseCache

	// CacheTTL is the lifetime passed to Cache.Put.
	CacheTTL time.Duration

	// Logger defaults to the NoOp logger.
	Logger logging.Logger

	// InstructionTemplate renders the system message; the combined
	// knowledge text is available as {{.Knowledge}}.
	InstructionTemplate string

	// FallbackText replaces an empty provider response.
	FallbackText string

	// StreamBuffer is the fragment channel buffer size.
	StreamBuffer int

	// MaxModelCalls caps provider calls per conversation; 0 means
	// unlimited. Cache hits do not count. The counter resets on
	// ClearHistory.
	MaxModelCalls int
}

// WithCache overrides the response cache (nil disables caching).
func WithCache(c core.ResponseCache) func(o *Options) {
	return func(o *Options) { o.Cache = c }
}

// WithCacheTTL overrides the cache entry lifetime.
func WithCacheTTL(ttl time.Duration) func(o *Options) {
	return func(o *Options) { o.CacheTTL = ttl }
}

// WithLogger overrides the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithInstructionTemplate overrides the system instruction template.
func WithInstructionTemplate(t string) func(o *Options) {
	return func(o *Options) { o.InstructionTemplate = t }
}

// WithFallbackText overrides the empty-response fallback.
func WithFallbackText(t string) func(o *Options) {
	return func(o *Options) { o.FallbackText = t }
}

// WithMaxModelCalls caps the number of provider calls per conversation.
func WithMaxModelCalls(max int) func(o *Options) {
	return func(o *Options) { o.MaxModelCalls = max }
}

// Orchestrator owns one conversation. See the package documentation for the
// state machine and the caller-serialization contract.
type Orchestrator struct {
	source   core.KnowledgeSource
	provider model.Provider
	history  *core.History
	limiter  *core.ModelLimiter
	loaded   bool
	opts     Options
	logger   logging.Logger
}

// New creates an orchestrator over the given knowledge source and provider.
// Any unset option falls back to a safe default.
func New(source core.KnowledgeSource, provider model.Provider, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Cache:               cache.NewInMemoryCache(),
		CacheTTL:            DefaultCacheTTL,
		Logger:              logging.NoOpLogger{},
		InstructionTemplate: DefaultInstructionTemplate,
		FallbackText:        DefaultFallbackText,
		StreamBuffer:        16,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		source:   source,
		provider: provider,
		history:  core.NewHistory(),
		limiter:  core.NewModelLimiter(opts.MaxModelCalls),
		opts:     opts,
		logger:   opts.Logger,
	}
}

// ID returns the conversation identifier.
func (o *Orchestrator) ID() string { return o.history.ID }

// History returns a copy of the current ordered message list.
func (o *Orchestrator) History() []core.Message { return o.history.Messages() }

// EnsureContextLoaded installs the knowledge-base system message at index 0
// when it is not present yet. It is idempotent: in the Ready state it is a
// no-op. On failure the state stays Uninitialized so a later call retries.
func (o *Orchestrator) EnsureContextLoaded(ctx context.Context) error {
	if o.loaded {
		return nil
	}
	start := time.Now()
	combined, err := o.source.CombinedText(ctx)
	if err != nil {
		o.logger.Warn("knowledge base load failed", "error", err)
		return fmt.Errorf("%w: %v", core.ErrKnowledgeUnavailable, err)
	}
	instruction, err := util.RenderTemplate(o.opts.InstructionTemplate, map[string]any{"Knowledge": combined})
	if err != nil {
		return fmt.Errorf("render instruction template: %w", err)
	}
	o.history.SetSystem(instruction)
	o.loaded = true
	o.logger.Info("knowledge base loaded",
		"bytes", len(combined), "duration", time.Since(start))
	return nil
}

// ReloadKnowledge re-reads the knowledge base and replaces the system
// message in place, keeping existing turns. On failure the previous context
// stays installed. Useful when the source directory changed underneath a
// running conversation.
func (o *Orchestrator) ReloadKnowledge(ctx context.Context) error {
	combined, err := o.source.CombinedText(ctx)
	if err != nil {
		o.logger.Warn("knowledge base reload failed", "error", err)
		return fmt.Errorf("%w: %v", core.ErrKnowledgeUnavailable, err)
	}
	instruction, err := util.RenderTemplate(o.opts.InstructionTemplate, map[string]any{"Knowledge": combined})
	if err != nil {
		return fmt.Errorf("render instruction template: %w", err)
	}
	o.history.SetSystem(instruction)
	o.loaded = true
	o.logger.Info("knowledge base reloaded", "bytes", len(combined))
	return nil
}

// Send submits userText as the next turn and blocks for the full response.
// The response cache is consulted first; a hit skips the provider entirely.
// On provider failure the already-appended user turn is not retracted.
func (o *Orchestrator) Send(ctx context.Context, userText string) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "", fmt.Errorf("%w: user message is empty", core.ErrInvalidInput)
	}
	if err := o.EnsureContextLoaded(ctx); err != nil {
		return "", err
	}
	o.history.Append(core.NewUserMessage(userText))
	msgs := o.history.Messages()
	fingerprint := core.Fingerprint(msgs)

	if cached, ok := o.cacheGet(ctx, fingerprint); ok {
		o.history.Append(core.NewAssistantMessage(cached))
		return cached, nil
	}

	if err := o.limiter.Increment(); err != nil {
		return "", err
	}
	start := time.Now()
	reply, err := o.provider.Complete(ctx, msgs)
	if err != nil {
		o.logger.Error("model call failed",
			"model", o.provider.Info().Name, "duration", time.Since(start), "error", err)
		return "", err
	}
	o.logger.Debug("model call completed",
		"model", o.provider.Info().Name, "duration", time.Since(start))

	text := reply.Text
	if strings.TrimSpace(text) == "" {
		text = o.opts.FallbackText
	}
	o.history.Append(core.NewAssistantMessage(text))
	o.cachePut(ctx, fingerprint, text)
	return text, nil
}

// Stream submits userText and returns the provider's fragments as they
// arrive. Validation and knowledge loading failures are returned eagerly;
// mid-stream failures arrive on the error channel after the fragments
// already delivered, which are not rolled back. On normal completion the
// aggregated response is appended to history as one assistant turn; on
// failure or cancellation nothing is appended. Streamed responses bypass
// the cache in both directions.
func (o *Orchestrator) Stream(ctx context.Context, userText string) (<-chan string, <-chan error, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, nil, fmt.Errorf("%w: user message is empty", core.ErrInvalidInput)
	}
	if err := o.EnsureContextLoaded(ctx); err != nil {
		return nil, nil, err
	}
	o.history.Append(core.NewUserMessage(userText))
	if err := o.limiter.Increment(); err != nil {
		return nil, nil, err
	}
	msgs := o.history.Messages()

	frags, errs := o.provider.StreamComplete(ctx, msgs)
	out := make(chan string, o.opts.StreamBuffer)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		var b strings.Builder
		count := 0
		for f := range frags {
			b.WriteString(f)
			count++
			select {
			case out <- f:
			case <-ctx.Done():
				o.logger.Warn("stream cancelled", "fragments", count)
				errCh <- fmt.Errorf("%w: stream cancelled: %v", core.ErrProvider, ctx.Err())
				return
			}
		}
		if err := <-errs; err != nil {
			o.logger.Error("stream failed", "fragments", count, "error", err)
			errCh <- err
			return
		}
		if err := ctx.Err(); err != nil {
			o.logger.Warn("stream cancelled", "fragments", count)
			errCh <- fmt.Errorf("%w: stream cancelled: %v", core.ErrProvider, err)
			return
		}
		text := b.String()
		if strings.TrimSpace(text) == "" {
			text = o.opts.FallbackText
		}
		o.history.Append(core.NewAssistantMessage(text))
		o.logger.Debug("stream completed", "fragments", count, "bytes", len(text))
	}()
	return out, errCh, nil
}

// ClearHistory resets the conversation to empty and discards the loaded
// knowledge context, forcing a source re-read on next use. It always
// succeeds.
func (o *Orchestrator) ClearHistory() {
	o.history.Clear()
	o.limiter.Reset()
	o.loaded = false
	o.logger.Info("history cleared")
}

// cacheGet swallows cache failures: the cache is a pure optimization layer
// with no correctness contribution.
func (o *Orchestrator) cacheGet(ctx context.Context, fingerprint string) (string, bool) {
	if o.opts.Cache == nil {
		return "", false
	}
	cached, ok, err := o.opts.Cache.Get(ctx, fingerprint)
	if err != nil {
		o.logger.Warn("cache lookup failed", "error", err)
		return "", false
	}
	o.logger.Debug("cache lookup", "hit", ok)
	return cached, ok
}

func (o *Orchestrator) cachePut(ctx context.Context, fingerprint, response string) {
	if o.opts.Cache == nil {
		return
	}
	if err := o.opts.Cache.Put(ctx, fingerprint, response, o.opts.CacheTTL); err != nil {
		o.logger.Warn("cache store failed", "error", err)
	}
}
