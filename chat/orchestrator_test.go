package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/kbchat/cache"
	"github.com/hupe1980/kbchat/core"
	"github.com/hupe1980/kbchat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource() *testutil.StaticSource {
	return &testutil.StaticSource{Combined: "## Facts\nSource: facts.md\n\nDI is injection.\n"}
}

func drain(t *testing.T, frags <-chan string, errs <-chan error) ([]string, error) {
	t.Helper()
	var got []string
	for f := range frags {
		got = append(got, f)
	}
	return got, <-errs
}

func TestSend_AppendsSystemUserAssistant(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "DI is a pattern."}
	orch := New(source, provider)

	text, err := orch.Send(context.Background(), "What is DI?")
	require.NoError(t, err)
	assert.Equal(t, "DI is a pattern.", text)

	msgs := orch.History()
	require.Len(t, msgs, 3)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Text, "DI is injection.")
	assert.Equal(t, core.NewUserMessage("What is DI?"), msgs[1])
	assert.Equal(t, core.NewAssistantMessage("DI is a pattern."), msgs[2])
}

func TestSend_SystemMessageInsertedOncePerLifetime(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "answer"}
	orch := New(source, provider)

	ctx := context.Background()
	_, err := orch.Send(ctx, "first")
	require.NoError(t, err)
	_, err = orch.Send(ctx, "second")
	require.NoError(t, err)

	systemCount := 0
	for i, m := range orch.History() {
		if m.Role == core.RoleSystem {
			systemCount++
			assert.Equal(t, 0, i)
		}
	}
	assert.Equal(t, 1, systemCount)
	assert.Equal(t, 1, source.CombinedCalls)
}

func TestClearHistory_ForcesKnowledgeReload(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "answer"}
	orch := New(source, provider)

	ctx := context.Background()
	_, err := orch.Send(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, 1, source.CombinedCalls)

	orch.ClearHistory()
	assert.Empty(t, orch.History())

	_, err = orch.Send(ctx, "hello again")
	require.NoError(t, err)
	assert.Equal(t, 2, source.CombinedCalls)
}

func TestSend_SecondIdenticalHistoryServedFromCache(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "cached answer"}
	orch := New(source, provider)

	ctx := context.Background()
	first, err := orch.Send(ctx, "What is DI?")
	require.NoError(t, err)

	// identical resulting history after a clear: same fingerprint
	orch.ClearHistory()
	second, err := orch.Send(ctx, "What is DI?")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.CompleteCalls)

	// the cached reply still lands in history as an assistant turn
	last := orch.History()[len(orch.History())-1]
	assert.Equal(t, core.NewAssistantMessage("cached answer"), last)
}

func TestSend_InvalidInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		source := newTestSource()
		provider := &testutil.ScriptedProvider{Response: "never"}
		orch := New(source, provider)

		_, err := orch.Send(context.Background(), input)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		assert.Empty(t, orch.History())
		assert.Equal(t, 0, provider.CompleteCalls)
		assert.Equal(t, 0, source.CombinedCalls)
	}
}

func TestStream_InvalidInputRaisedEagerly(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Fragments: []string{"never"}}
	orch := New(source, provider)

	frags, errs, err := orch.Stream(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Nil(t, frags)
	assert.Nil(t, errs)
	assert.Empty(t, orch.History())
	assert.Equal(t, 0, provider.StreamCalls)
}

func TestSend_KnowledgeUnavailableThenRetry(t *testing.T) {
	source := newTestSource()
	source.SetErr(fmt.Errorf("%w: directory missing", core.ErrSourceUnavailable))
	provider := &testutil.ScriptedProvider{Response: "answer"}
	orch := New(source, provider)

	ctx := context.Background()
	_, err := orch.Send(ctx, "hello")
	assert.ErrorIs(t, err, core.ErrKnowledgeUnavailable)
	assert.Empty(t, orch.History()) // no mutation, still Uninitialized
	assert.Equal(t, 0, provider.CompleteCalls)

	// the source recovers; the next call retries the load
	source.SetErr(nil)
	text, err := orch.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.Len(t, orch.History(), 3)
}

func TestSend_ProviderFailureKeepsUserTurn(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Err: fmt.Errorf("rate limited")}
	orch := New(source, provider)

	_, err := orch.Send(context.Background(), "doomed question")
	assert.ErrorIs(t, err, core.ErrProvider)

	msgs := orch.History()
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	// at-least-once-append: the user turn is not retracted on failure
	assert.Equal(t, core.NewUserMessage("doomed question"), msgs[1])
}

func TestSend_CacheFailureDegradesToProvider(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "direct answer"}
	failing := &testutil.FailingCache{}
	orch := New(source, provider, WithCache(failing))

	text, err := orch.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "direct answer", text)
	assert.Equal(t, 1, provider.CompleteCalls)
	assert.Equal(t, 1, failing.GetCalls)
	assert.Equal(t, 1, failing.PutCalls)
}

func TestSend_CacheDisabled(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "answer"}
	orch := New(source, provider, WithCache(nil))

	ctx := context.Background()
	_, err := orch.Send(ctx, "question")
	require.NoError(t, err)
	orch.ClearHistory()
	_, err = orch.Send(ctx, "question")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.CompleteCalls)
}

func TestSend_EmptyProviderResponseFallsBack(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "   "}
	orch := New(source, provider)

	text, err := orch.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackText, text)
}

func TestStream_FragmentsInOrderThenAggregated(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Fragments: []string{"SOLID ", "is ", "five principles."}}
	orch := New(source, provider)

	frags, errs, err := orch.Stream(context.Background(), "Explain SOLID")
	require.NoError(t, err)

	got, streamErr := drain(t, frags, errs)
	require.NoError(t, streamErr)
	assert.Equal(t, []string{"SOLID ", "is ", "five principles."}, got)

	msgs := orch.History()
	require.Len(t, msgs, 3)
	assert.Equal(t, core.NewAssistantMessage("SOLID is five principles."), msgs[2])
}

func TestStream_MidStreamFailure(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{
		Fragments: []string{"Sol"},
		StreamErr: fmt.Errorf("connection reset"),
	}
	orch := New(source, provider)

	frags, errs, err := orch.Stream(context.Background(), "Explain SOLID")
	require.NoError(t, err)

	got, streamErr := drain(t, frags, errs)
	assert.Equal(t, []string{"Sol"}, got) // delivered fragments stand
	assert.ErrorIs(t, streamErr, core.ErrProvider)

	// user turn retained, no assistant turn appended
	msgs := orch.History()
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[1].Role)
}

func TestStream_CancellationAppendsNothing(t *testing.T) {
	source := newTestSource()
	gate := make(chan struct{})
	provider := &testutil.ScriptedProvider{
		Fragments: []string{"one ", "two ", "three"},
		Gate:      gate,
	}
	orch := New(source, provider)

	ctx, cancel := context.WithCancel(context.Background())
	frags, errs, err := orch.Stream(ctx, "count for me")
	require.NoError(t, err)

	// release and observe the first fragment, then cancel mid-stream
	gate <- struct{}{}
	first, ok := <-frags
	require.True(t, ok)
	assert.Equal(t, "one ", first)
	cancel()

	for range frags { //nolint:revive // drain remaining
	}
	streamErr := <-errs
	assert.ErrorIs(t, streamErr, core.ErrProvider)

	msgs := orch.History()
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[1].Role)
}

func TestStream_BypassesCache(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Fragments: []string{"streamed"}}
	c := cache.NewInMemoryCache()
	orch := New(source, provider, WithCache(c))

	frags, errs, err := orch.Stream(context.Background(), "hello")
	require.NoError(t, err)
	_, streamErr := drain(t, frags, errs)
	require.NoError(t, streamErr)

	// streamed responses are never written to the cache
	assert.Equal(t, 0, c.Len())
}

func TestSend_WritesCache(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "answer"}
	c := cache.NewInMemoryCache()
	orch := New(source, provider, WithCache(c), WithCacheTTL(time.Minute))

	_, err := orch.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestSend_MaxModelCallsPerConversation(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "answer"}
	orch := New(source, provider, WithCache(nil), WithMaxModelCalls(1))

	ctx := context.Background()
	_, err := orch.Send(ctx, "first")
	require.NoError(t, err)

	_, err = orch.Send(ctx, "second")
	assert.Error(t, err)
	assert.Equal(t, 1, provider.CompleteCalls)

	// the budget is per conversation, a clear starts a new one
	orch.ClearHistory()
	_, err = orch.Send(ctx, "third")
	assert.NoError(t, err)
}

func TestReloadKnowledge_ReplacesSystemInPlace(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "answer"}
	orch := New(source, provider)

	ctx := context.Background()
	_, err := orch.Send(ctx, "hello")
	require.NoError(t, err)

	source.Combined = "updated knowledge"
	require.NoError(t, orch.ReloadKnowledge(ctx))

	msgs := orch.History()
	assert.Contains(t, msgs[0].Text, "updated knowledge")
	require.Len(t, msgs, 3) // turns preserved, system replaced in place
}

func TestCustomInstructionTemplate(t *testing.T) {
	source := newTestSource()
	provider := &testutil.ScriptedProvider{Response: "answer"}
	orch := New(source, provider,
		WithInstructionTemplate("CONTEXT>>>{{.Knowledge}}<<<"))

	_, err := orch.Send(context.Background(), "hello")
	require.NoError(t, err)
	msgs := orch.History()
	assert.Contains(t, msgs[0].Text, "CONTEXT>>>")
	assert.Contains(t, msgs[0].Text, "<<<")
}
