package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/kbchat/core"
	"github.com/hupe1980/kbchat/model"
)

// StaticSource is a core.KnowledgeSource returning canned content and
// counting invocations.
type StaticSource struct {
	mu            sync.Mutex
	Combined      string
	Docs          []core.Document
	Err           error
	CombinedCalls int
	ListCalls     int
}

// ListDocuments implements core.KnowledgeSource.
func (s *StaticSource) ListDocuments(context.Context) ([]core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Docs, nil
}

// CombinedText implements core.KnowledgeSource.
func (s *StaticSource) CombinedText(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CombinedCalls++
	if s.Err != nil {
		return "", s.Err
	}
	return s.Combined, nil
}

// SetErr swaps the error returned by subsequent calls.
func (s *StaticSource) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

// ScriptedProvider is a model.Provider with a fixed blocking response and a
// fixed fragment script for streaming, plus call counters. When StreamErr
// is set, it is emitted after the scripted fragments, which are delivered
// normally first. A non-nil Gate makes the stream wait for one receive per
// fragment, letting tests cancel mid-stream deterministically.
type ScriptedProvider struct {
	mu            sync.Mutex
	Response      string
	Err           error
	Fragments     []string
	StreamErr     error
	Gate          chan struct{}
	CompleteCalls int
	StreamCalls   int
	LastHistory   []core.Message
}

// Complete implements model.Provider.
func (p *ScriptedProvider) Complete(_ context.Context, msgs []core.Message) (core.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls++
	p.LastHistory = msgs
	if p.Err != nil {
		return core.Message{}, fmt.Errorf("%w: scripted: %v", core.ErrProvider, p.Err)
	}
	return core.NewAssistantMessage(p.Response), nil
}

// StreamComplete implements model.Provider.
func (p *ScriptedProvider) StreamComplete(ctx context.Context, msgs []core.Message) (<-chan string, <-chan error) {
	p.mu.Lock()
	p.StreamCalls++
	p.LastHistory = msgs
	fragments := append([]string(nil), p.Fragments...)
	streamErr := p.StreamErr
	gate := p.Gate
	p.mu.Unlock()

	out := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		for _, f := range fragments {
			if gate != nil {
				select {
				case <-ctx.Done():
					errCh <- fmt.Errorf("%w: scripted: %v", core.ErrProvider, ctx.Err())
					return
				case <-gate:
				}
			}
			select {
			case <-ctx.Done():
				errCh <- fmt.Errorf("%w: scripted: %v", core.ErrProvider, ctx.Err())
				return
			case out <- f:
			}
		}
		if streamErr != nil {
			errCh <- fmt.Errorf("%w: scripted: %v", core.ErrProvider, streamErr)
		}
	}()
	return out, errCh
}

// Info implements model.Provider.
func (p *ScriptedProvider) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test"}
}

// FailingCache is a core.ResponseCache whose operations always fail,
// for exercising the degrade-to-provider path.
type FailingCache struct {
	GetCalls int
	PutCalls int
}

// Get implements core.ResponseCache.
func (c *FailingCache) Get(context.Context, string) (string, bool, error) {
	c.GetCalls++
	return "", false, fmt.Errorf("cache store unreachable")
}

// Put implements core.ResponseCache.
func (c *FailingCache) Put(context.Context, string, string, time.Duration) error {
	c.PutCalls++
	return fmt.Errorf("cache store unreachable")
}
