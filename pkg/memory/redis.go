package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/models"
)

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	MaxMessages int
	// TTL expires idle sessions; zero keeps them forever.
	TTL time.Duration
}

// RedisStore keeps each session as a Redis list so several server
// instances can share chat history.
type RedisStore struct {
	client *redis.Client
	config RedisConfig
}

func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return NewRedisStoreFromClient(client, config), nil
}

func NewRedisStoreFromClient(client *redis.Client, config RedisConfig) *RedisStore {
	if config.Prefix == "" {
		config.Prefix = "courseplan:chat:"
	}
	if config.MaxMessages <= 0 {
		config.MaxMessages = DefaultMaxMessages
	}
	return &RedisStore{client: client, config: config}
}

func (s *RedisStore) key(sessionID string) string {
	return s.config.Prefix + "session:" + sessionID
}

func (s *RedisStore) sessionsKey() string {
	return s.config.Prefix + "sessions"
}

func (s *RedisStore) History(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	raw, err := s.client.LRange(ctx, s.key(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	out := make([]models.Message, 0, len(raw))
	for _, item := range raw {
		var m models.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			logger.Warnw("dropping undecodable message", "session_id", sessionID, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// AddExchange pushes both turns and trims the list in one MULTI block.
func (s *RedisStore) AddExchange(ctx context.Context, sessionID, userText, assistantText string) error {
	user, err := json.Marshal(models.Message{Role: models.RoleUser, Content: userText})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	assistant, err := json.Marshal(models.Message{Role: models.RoleAssistant, Content: assistantText})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	key := s.key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, user, assistant)
		pipe.LTrim(ctx, key, int64(-s.config.MaxMessages), -1)
		pipe.SAdd(ctx, s.sessionsKey(), sessionID)
		if s.config.TTL > 0 {
			pipe.Expire(ctx, key, s.config.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store exchange: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID))
		pipe.SRem(ctx, s.sessionsKey(), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Count returns the number of sessions with history. Members whose list
// has expired are pruned from the session set.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	ids, err := s.client.SMembers(ctx, s.sessionsKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	n := 0
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to check session: %w", err)
		}
		if exists == 0 {
			s.client.SRem(ctx, s.sessionsKey(), id)
			continue
		}
		n++
	}
	return n, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
