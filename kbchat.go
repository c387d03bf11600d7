// Package kbchat provides a high-level façade over the conversation
// orchestrator and its service abstractions (knowledge source, model
// provider, response cache, logging) enabling rapid construction of a
// knowledge-grounded chat. Most applications interact with this package by:
//  1. Creating an orchestrator via New() with a provider and a knowledge
//     directory (or a custom KnowledgeSource)
//  2. Calling Send for blocking turns or Stream for incremental ones
//  3. Calling ClearHistory to start over (the knowledge base is re-read)
//
// The façade delegates orchestration to chat.Orchestrator while keeping
// setup ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a persistent cache and a
// structured logger.
package kbchat

import (
	"fmt"
	"time"

	"github.com/hupe1980/kbchat/chat"
	"github.com/hupe1980/kbchat/core"
	"github.com/hupe1980/kbchat/knowledge"
	"github.com/hupe1980/kbchat/logging"
	"github.com/hupe1980/kbchat/model"
)

// Options configures the façade.
type Options struct {
	// KnowledgeDir locates the document directory. Ignored when Source is
	// set explicitly.
	KnowledgeDir string

	// Source overrides the filesystem knowledge source.
	Source core.KnowledgeSource

	// Provider generates responses. Required.
	Provider model.Provider

	// Cache overrides the default in-memory response cache. Leave nil to
	// keep the default; to disable caching use chat.New directly with
	// chat.WithCache(nil).
	Cache core.ResponseCache

	// CacheTTL overrides the cached response lifetime.
	CacheTTL time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// New creates a ready-to-use orchestrator with optional overrides. Any
// unset service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) (*chat.Orchestrator, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("kbchat: a model provider is required")
	}
	source := opts.Source
	if source == nil {
		if opts.KnowledgeDir == "" {
			return nil, fmt.Errorf("kbchat: a knowledge source or directory is required")
		}
		source = knowledge.NewDirSource(opts.KnowledgeDir, func(o *knowledge.Options) {
			o.Logger = opts.Logger
		})
	}
	chatOpts := []func(o *chat.Options){chat.WithLogger(opts.Logger)}
	if opts.Cache != nil {
		chatOpts = append(chatOpts, chat.WithCache(opts.Cache))
	}
	if opts.CacheTTL > 0 {
		chatOpts = append(chatOpts, chat.WithCacheTTL(opts.CacheTTL))
	}
	return chat.New(source, opts.Provider, chatOpts...), nil
}
