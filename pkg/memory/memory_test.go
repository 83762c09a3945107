package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/internal/types"
	"github.com/xhad/courseplan/pkg/memory"
)

func newRedis(t *testing.T, ttl time.Duration) (*memory.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := memory.NewRedisStore(context.Background(), memory.RedisConfig{Addr: mr.Addr(), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func stores(t *testing.T) map[string]types.SessionStore {
	rs, _ := newRedis(t, 0)
	return map[string]types.SessionStore{
		"memory": memory.NewInMemoryStore(0),
		"redis":  rs,
	}
}

func TestHistoryIsBounded(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 25; i++ {
				require.NoError(t, s.AddExchange(ctx, "s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
			}

			all, err := s.History(ctx, "s1", 0)
			require.NoError(t, err)
			require.Len(t, all, 20)
			assert.Equal(t, models.Message{Role: models.RoleUser, Content: "q15"}, all[0])
			assert.Equal(t, models.Message{Role: models.RoleAssistant, Content: "a24"}, all[19])

			last, err := s.History(ctx, "s1", 10)
			require.NoError(t, err)
			require.Len(t, last, 10)
			assert.Equal(t, "q20", last[0].Content)
		})
	}
}

func TestClearAndCount(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.AddExchange(ctx, "a", "hi", "hello"))
			require.NoError(t, s.AddExchange(ctx, "b", "hi", "hello"))

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			require.NoError(t, s.Clear(ctx, "a"))
			require.NoError(t, s.Clear(ctx, "never-existed"))

			n, err = s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			h, err := s.History(ctx, "a", 10)
			require.NoError(t, err)
			assert.Empty(t, h)
		})
	}
}

func TestConcurrentExchangesStayPaired(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = s.AddExchange(ctx, "shared", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
				}(i)
			}
			wg.Wait()

			h, err := s.History(ctx, "shared", 0)
			require.NoError(t, err)
			require.Len(t, h, 16)
			for i := 0; i < len(h); i += 2 {
				assert.Equal(t, models.RoleUser, h[i].Role)
				assert.Equal(t, models.RoleAssistant, h[i+1].Role)
				assert.Equal(t, h[i].Content[1:], h[i+1].Content[1:])
			}
		})
	}
}

func TestRedisSessionExpiry(t *testing.T) {
	s, mr := newRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.AddExchange(ctx, "s1", "q", "a"))
	mr.FastForward(2 * time.Minute)

	h, err := s.History(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, h)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewRedisStoreConnectionFailure(t *testing.T) {
	_, err := memory.NewRedisStore(context.Background(), memory.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
