package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/local/chatrelay/internal/convo"
)

// RedisStore keeps one JSON-encoded message sequence per user under a
// "history:<user id>" key. SET is atomic per key, so replacement has the
// same last-write-wins semantics as the SQLite backend.
type RedisStore struct {
	client *redis.Client
}

// OpenRedis connects to the given redis server and verifies the connection
// with a ping before returning.
func OpenRedis(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func historyKey(userID int64) string {
	return fmt.Sprintf("history:%d", userID)
}

// Get returns the stored message sequence for the user, or an empty slice
// when the key is absent. Backend failures surface as errors.
func (s *RedisStore) Get(ctx context.Context, userID int64) ([]convo.Message, error) {
	raw, err := s.client.Get(ctx, historyKey(userID)).Result()
	if err == redis.Nil {
		return []convo.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history read for user %d: %w", userID, err)
	}

	var messages []convo.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, fmt.Errorf("history decode for user %d: %w", userID, err)
	}
	if messages == nil {
		messages = []convo.Message{}
	}
	return messages, nil
}

// Set replaces the stored sequence for the user.
func (s *RedisStore) Set(ctx context.Context, userID int64, messages []convo.Message) error {
	if messages == nil {
		messages = []convo.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("history encode for user %d: %w", userID, err)
	}
	if err := s.client.Set(ctx, historyKey(userID), string(raw), 0).Err(); err != nil {
		return fmt.Errorf("history write for user %d: %w", userID, err)
	}
	return nil
}

// Clear removes the user's history key.
func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, historyKey(userID)).Err(); err != nil {
		return fmt.Errorf("history clear for user %d: %w", userID, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
