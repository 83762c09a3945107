package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddExchangeSurvivesConcurrentClear(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(0)

	held := s.get("doc:chat", true)
	held.mu.Lock()

	done := make(chan error)
	go func() {
		done <- s.AddExchange(ctx, "doc:chat", "q", "a")
	}()

	// Let AddExchange block on the session it looked up, then detach it.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Clear(ctx, "doc:chat"))
	held.mu.Unlock()
	require.NoError(t, <-done)

	h, err := s.History(ctx, "doc:chat", 0)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, "q", h[0].Content)
	assert.Equal(t, "a", h[1].Content)
	assert.Empty(t, held.messages)
}
