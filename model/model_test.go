package model

import (
	"context"
	"strings"
	"testing"

	"github.com/hupe1980/kbchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ Provider = (*MockProvider)(nil)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{ModelID: "gpt-4o-mini", Temperature: 0.7, MaxOutputTokens: 1024}, false},
		{"temperature lower bound", Config{ModelID: "m", Temperature: 0, MaxOutputTokens: 1}, false},
		{"temperature upper bound", Config{ModelID: "m", Temperature: 2, MaxOutputTokens: 1}, false},
		{"empty model id", Config{ModelID: "  ", Temperature: 0.7, MaxOutputTokens: 1024}, true},
		{"temperature too high", Config{ModelID: "m", Temperature: 2.1, MaxOutputTokens: 1024}, true},
		{"temperature negative", Config{ModelID: "m", Temperature: -0.1, MaxOutputTokens: 1024}, true},
		{"zero max tokens", Config{ModelID: "m", Temperature: 0.7, MaxOutputTokens: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMockProvider_Complete(t *testing.T) {
	p := NewMockProvider("test-model")
	p.AddResponse("What is DI?", "DI is a pattern.")

	msg, err := p.Complete(context.Background(), []core.Message{core.NewUserMessage("What is DI?")})
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, msg.Role)
	assert.Equal(t, "DI is a pattern.", msg.Text)
}

func TestMockProvider_CompleteEmptyHistory(t *testing.T) {
	p := NewMockProvider("test-model")
	_, err := p.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrProvider)
}

func TestMockProvider_StreamCompleteAggregates(t *testing.T) {
	p := NewMockProvider("test-model")
	p.AddResponse("Explain SOLID", "SOLID is five principles.")

	frags, errs := p.StreamComplete(context.Background(), []core.Message{core.NewUserMessage("Explain SOLID")})
	var b strings.Builder
	for f := range frags {
		assert.NotEmpty(t, f)
		b.WriteString(f)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, "SOLID is five principles.", b.String())
}

func TestMockProvider_StreamCompleteCancel(t *testing.T) {
	p := NewMockProvider("test-model")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frags, errs := p.StreamComplete(ctx, []core.Message{core.NewUserMessage("anything at all")})
	for range frags { //nolint:revive // drain
	}
	err := <-errs
	if err != nil {
		assert.ErrorIs(t, err, core.ErrProvider)
	}
}
