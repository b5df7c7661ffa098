package pane

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRunnerScriptedResults(t *testing.T) {
	m := NewMockRunner()
	boom := errors.New("agent crashed")
	m.DispatchResults = []error{nil, boom}

	ctx := context.Background()
	assert.NoError(t, m.Dispatch(ctx, "p1"))
	assert.ErrorIs(t, m.Dispatch(ctx, "p2"), boom)
	// Past the script's end, calls succeed.
	assert.NoError(t, m.Dispatch(ctx, "p3"))

	assert.Equal(t, []string{"p1", "p2", "p3"}, m.DispatchCalls)
	assert.Equal(t, 3, m.Calls())
}

func TestMockRunnerHonorsCancellation(t *testing.T) {
	m := NewMockRunner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Dispatch(ctx, "p1"), context.Canceled)
}

func TestMockRunnerDispatchFunc(t *testing.T) {
	m := NewMockRunner()
	var seen string
	m.DispatchFunc = func(ctx context.Context, promptPath string) error {
		seen = promptPath
		return nil
	}

	require.NoError(t, m.Dispatch(context.Background(), "prompt.md"))
	assert.Equal(t, "prompt.md", seen)
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"plain", "plain"},
		{"/path/to/prompt.md", "/path/to/prompt.md"},
		{"has space", "'has space'"},
		{"it's", `'it'\''s'`},
		{"$HOME", "'$HOME'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shellQuote(tt.in), "input %q", tt.in)
	}
}
